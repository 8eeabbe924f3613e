package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// MaskToken replaces every personally identifying value in anonymized output.
const MaskToken = "****"

// Text is a loosely typed JSON scalar (string, number or bool) kept in its textual form.
type Text string

// UnmarshalJSON accepts any scalar; objects and arrays are rejected.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
	case '{', '[':
		return fmt.Errorf("expected scalar, got %s", string(data[:1]))
	default:
		*t = Text(data)
	}
	return nil
}

// String returns the textual form.
func (t Text) String() string {
	return string(t)
}

// RawRecord is one person object exactly as the source returned it.
type RawRecord struct {
	Body json.RawMessage
}

// Field is a single named value used for order-independent comparisons.
type Field struct {
	Name  string
	Value string
}

// Address is the postal sub-record of a person.
type Address struct {
	ID             *Text
	Street         string
	StreetName     *Text
	BuildingNumber *Text
	City           string
	Zipcode        *Text
	Country        string
	CountryCode    *Text
	Latitude       *Text
	Longitude      *Text
	Extra          map[string]Text
}

// Fields lists every present address value, the address id included.
func (a Address) Fields() []Field {
	fields := []Field{
		{Name: "street", Value: a.Street},
		{Name: "city", Value: a.City},
		{Name: "country", Value: a.Country},
	}
	fields = appendText(fields, "id", a.ID)
	fields = appendText(fields, "streetName", a.StreetName)
	fields = appendText(fields, "buildingNumber", a.BuildingNumber)
	fields = appendText(fields, "zipcode", a.Zipcode)
	fields = appendText(fields, "country_code", a.CountryCode)
	fields = appendText(fields, "latitude", a.Latitude)
	fields = appendText(fields, "longitude", a.Longitude)
	return appendExtra(fields, a.Extra)
}

// Person is a typed person record. Optional fields are nil when the source omitted them.
type Person struct {
	ID        Text
	Firstname string
	Lastname  string
	Email     string
	Phone     *string
	Birthday  string
	Gender    *string
	Website   *string
	Image     *string
	Address   Address
	Extra     map[string]Text
}

// Fields lists every present top-level value except the identifier and the address.
func (p Person) Fields() []Field {
	fields := []Field{
		{Name: "firstname", Value: p.Firstname},
		{Name: "lastname", Value: p.Lastname},
		{Name: "email", Value: p.Email},
		{Name: "birthday", Value: p.Birthday},
	}
	fields = appendString(fields, "phone", p.Phone)
	fields = appendString(fields, "gender", p.Gender)
	fields = appendString(fields, "website", p.Website)
	fields = appendString(fields, "image", p.Image)
	return appendExtra(fields, p.Extra)
}

// ValidRecord is a person that passed structural and semantic validation.
type ValidRecord struct {
	Person
}

// CleanedRecord is a valid person with normalized casing and formatting.
type CleanedRecord struct {
	Person
}

// AnonymizedRecord is the only persisted shape; identifying columns hold MaskToken.
type AnonymizedRecord struct {
	Firstname      string `json:"firstname"`
	Lastname       string `json:"lastname"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Birthday       string `json:"birthday"`
	Gender         string `json:"gender"`
	Street         string `json:"street"`
	StreetName     string `json:"streetName"`
	BuildingNumber string `json:"buildingNumber"`
	City           string `json:"city"`
	Zipcode        string `json:"zipcode"`
	Country        string `json:"country"`
	CountyCode     string `json:"county_code"`
	Latitude       string `json:"latitude"`
	Longitude      string `json:"longitude"`
	Website        string `json:"website"`
	Image          string `json:"image"`
	AgeGroup       string `json:"age_group"`
	EmailProvider  string `json:"email_provider"`
}

// Values returns the record in PersonColumns order.
func (r AnonymizedRecord) Values() []any {
	return []any{
		r.Firstname, r.Lastname, r.Email, r.Phone, r.Birthday, r.Gender,
		r.Street, r.StreetName, r.BuildingNumber, r.City, r.Zipcode, r.Country,
		r.CountyCode, r.Latitude, r.Longitude, r.Website, r.Image,
		r.AgeGroup, r.EmailProvider,
	}
}

// PersonColumns is the text column contract of the persons table, id excluded.
var PersonColumns = []string{
	"firstname", "lastname", "email", "phone", "birthday", "gender",
	"street", "streetName", "buildingNumber", "city", "zipcode", "country",
	"county_code", "latitude", "longitude", "website", "image",
	"age_group", "email_provider",
}

func appendString(fields []Field, name string, v *string) []Field {
	if v == nil {
		return fields
	}
	return append(fields, Field{Name: name, Value: *v})
}

func appendText(fields []Field, name string, v *Text) []Field {
	if v == nil {
		return fields
	}
	return append(fields, Field{Name: name, Value: v.String()})
}

func appendExtra(fields []Field, extra map[string]Text) []Field {
	for name, v := range extra {
		fields = append(fields, Field{Name: name, Value: v.String()})
	}
	return fields
}
