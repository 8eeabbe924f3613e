package processing

import (
	"PersonsPipeline/internal/domain"
)

const johnJSON = `{
	"id": 1,
	"firstname": "John",
	"lastname": "Doe",
	"email": "john.doe@example.com",
	"birthday": "1990-01-01",
	"address": {"street": "123 Main St", "city": "Anytown", "country": "USA"}
}`

const janeJSON = `{
	"id": 2,
	"firstname": "Jane",
	"lastname": "Smith",
	"email": "jane.smith@example.com",
	"birthday": "1985-05-15",
	"address": {"street": "456 Elm St", "city": "Othertown", "country": "Canada"}
}`

func raw(body string) domain.RawRecord {
	return domain.RawRecord{Body: []byte(body)}
}

func strPtr(s string) *string {
	return &s
}

func samplePerson(id, email string) domain.Person {
	return domain.Person{
		ID:        domain.Text(id),
		Firstname: "John",
		Lastname:  "Doe",
		Email:     email,
		Birthday:  "1990-01-01",
		Address: domain.Address{
			Street:  "123 Main St",
			City:    "New York",
			Country: "USA",
		},
	}
}
