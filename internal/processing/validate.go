package processing

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"PersonsPipeline/internal/domain"
)

// DateLayout is the ISO calendar date format of birthdays.
const DateLayout = "2006-01-02"

// emailExpr matches local@domain.tld anchored at the start only.
var emailExpr = regexp.MustCompile(`^[^@]+@[^@]+\.[^@]+`)

// ValidEmail reports whether email looks like local@domain.tld.
func ValidEmail(email string) bool {
	return emailExpr.MatchString(email)
}

// ValidDate reports whether value is a real calendar date in YYYY-MM-DD form.
func ValidDate(value string) bool {
	_, err := time.Parse(DateLayout, value)
	return err == nil
}

// addressPayload mirrors the address object with presence tracking.
type addressPayload struct {
	ID             *domain.Text `json:"id"`
	Street         *string      `json:"street" validate:"required"`
	StreetName     *domain.Text `json:"streetName"`
	BuildingNumber *domain.Text `json:"buildingNumber"`
	City           *string      `json:"city" validate:"required"`
	Zipcode        *domain.Text `json:"zipcode"`
	Country        *string      `json:"country" validate:"required"`
	CountryCode    *domain.Text `json:"country_code"`
	Latitude       *domain.Text `json:"latitude"`
	Longitude      *domain.Text `json:"longitude"`

	extra map[string]domain.Text
}

var addressKeys = []string{
	"id", "street", "streetName", "buildingNumber", "city",
	"zipcode", "country", "country_code", "latitude", "longitude",
}

func (a *addressPayload) UnmarshalJSON(data []byte) error {
	type plain addressPayload
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := extraFields(data, addressKeys)
	if err != nil {
		return err
	}
	*a = addressPayload(p)
	a.extra = extra
	return nil
}

// personPayload mirrors the person object with presence tracking.
type personPayload struct {
	ID        *domain.Text    `json:"id"`
	Firstname *string         `json:"firstname" validate:"required"`
	Lastname  *string         `json:"lastname" validate:"required"`
	Email     *string         `json:"email" validate:"required,basic_email"`
	Phone     *string         `json:"phone"`
	Birthday  *string         `json:"birthday" validate:"required,datetime=2006-01-02"`
	Gender    *string         `json:"gender"`
	Website   *string         `json:"website"`
	Image     *string         `json:"image"`
	Address   *addressPayload `json:"address" validate:"required"`

	extra map[string]domain.Text
}

var personKeys = []string{
	"id", "firstname", "lastname", "email", "phone", "birthday",
	"gender", "website", "image", "address",
}

func (p *personPayload) UnmarshalJSON(data []byte) error {
	type plain personPayload
	var pl plain
	if err := json.Unmarshal(data, &pl); err != nil {
		return err
	}
	extra, err := extraFields(data, personKeys)
	if err != nil {
		return err
	}
	*p = personPayload(pl)
	p.extra = extra
	return nil
}

func (p *personPayload) toPerson() domain.Person {
	person := domain.Person{
		Firstname: *p.Firstname,
		Lastname:  *p.Lastname,
		Email:     *p.Email,
		Phone:     p.Phone,
		Birthday:  *p.Birthday,
		Gender:    p.Gender,
		Website:   p.Website,
		Image:     p.Image,
		Extra:     p.extra,
		Address: domain.Address{
			ID:             p.Address.ID,
			Street:         *p.Address.Street,
			StreetName:     p.Address.StreetName,
			BuildingNumber: p.Address.BuildingNumber,
			City:           *p.Address.City,
			Zipcode:        p.Address.Zipcode,
			Country:        *p.Address.Country,
			CountryCode:    p.Address.CountryCode,
			Latitude:       p.Address.Latitude,
			Longitude:      p.Address.Longitude,
			Extra:          p.Address.extra,
		},
	}
	if p.ID != nil {
		person.ID = *p.ID
	}
	return person
}

// Validator keeps raw records that are structurally complete and semantically valid.
type Validator struct {
	validate *validator.Validate
	logger   *slog.Logger
}

// NewValidator registers the person rules.
func NewValidator(logger *slog.Logger) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("basic_email", func(fl validator.FieldLevel) bool {
		return ValidEmail(fl.Field().String())
	})

	return &Validator{validate: v, logger: orDiscard(logger)}
}

// Validate filters records; a bad record is dropped and reported, never aborting the batch.
func (v *Validator) Validate(records []domain.RawRecord) ([]domain.ValidRecord, domain.StageReport) {
	report := domain.StageReport{Stage: domain.StageValidate, In: len(records)}
	valid := make([]domain.ValidRecord, 0, len(records))

	for i, record := range records {
		person, id, err := v.validateOne(record)
		if err != nil {
			dropped := report.Drop(i, id, err)
			v.logger.Warn("record dropped", "error", dropped)
			continue
		}
		valid = append(valid, domain.ValidRecord{Person: person})
	}

	report.Out = len(valid)
	v.logger.Info("validated records", "report", report)
	return valid, report
}

func (v *Validator) validateOne(record domain.RawRecord) (domain.Person, string, error) {
	body := bytes.TrimSpace(record.Body)
	if len(body) == 0 || body[0] != '{' {
		return domain.Person{}, "", fmt.Errorf("%w: not a JSON object", domain.ErrMalformedRecord)
	}

	var payload personPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return domain.Person{}, "", fmt.Errorf("%w: %v", domain.ErrMalformedRecord, err)
	}

	id := ""
	if payload.ID != nil {
		id = payload.ID.String()
	}

	if err := v.validate.Struct(&payload); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			return domain.Person{}, id, translate(fieldErrs)
		}
		return domain.Person{}, id, fmt.Errorf("%w: %v", domain.ErrMalformedRecord, err)
	}

	return payload.toPerson(), id, nil
}

// translate maps the first failed rule to the matching sentinel error.
func translate(errs validator.ValidationErrors) error {
	fe := errs[0]
	switch {
	case fe.Tag() == "required" && strings.HasPrefix(fe.Namespace(), "personPayload.address."):
		return fmt.Errorf("%w: address.%s", domain.ErrInvalidAddress, fe.Field())
	case fe.Tag() == "required":
		return fmt.Errorf("%w: %s", domain.ErrMissingField, fe.Field())
	case fe.Tag() == "basic_email":
		return fmt.Errorf("%w: %q", domain.ErrInvalidEmail, fe.Value())
	case fe.Tag() == "datetime":
		return fmt.Errorf("%w: %q", domain.ErrInvalidDate, fe.Value())
	default:
		return fmt.Errorf("%w: %s failed %s", domain.ErrMalformedRecord, fe.Field(), fe.Tag())
	}
}

// extraFields returns the object's keys outside known, each kept as a scalar.
func extraFields(data []byte, known []string) (map[string]domain.Text, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for _, key := range known {
		delete(all, key)
	}
	if len(all) == 0 {
		return nil, nil
	}

	extra := make(map[string]domain.Text, len(all))
	for key, raw := range all {
		var t domain.Text
		if err := t.UnmarshalJSON(raw); err != nil {
			t = domain.Text(bytes.TrimSpace(raw))
		}
		extra[key] = t
	}
	return extra, nil
}
