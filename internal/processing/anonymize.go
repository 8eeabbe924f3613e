package processing

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"PersonsPipeline/internal/domain"
)

// Clock returns the current time.
type Clock func() time.Time

// Anonymizer projects unique persons onto the persisted, non-identifying shape.
type Anonymizer struct {
	clock  Clock
	logger *slog.Logger
}

// AnonymizerOption configures an Anonymizer.
type AnonymizerOption func(*Anonymizer)

// WithClock overrides the clock used to compute ages.
func WithClock(clock Clock) AnonymizerOption {
	return func(a *Anonymizer) {
		if clock != nil {
			a.clock = clock
		}
	}
}

// NewAnonymizer builds an Anonymizer using the wall clock unless overridden.
func NewAnonymizer(logger *slog.Logger, opts ...AnonymizerOption) *Anonymizer {
	a := &Anonymizer{clock: time.Now, logger: orDiscard(logger)}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// Anonymize masks every record; records without a usable birthday or email are dropped.
func (a *Anonymizer) Anonymize(records []domain.CleanedRecord) ([]domain.AnonymizedRecord, domain.StageReport) {
	report := domain.StageReport{Stage: domain.StageAnonymize, In: len(records)}
	out := make([]domain.AnonymizedRecord, 0, len(records))
	now := a.clock()

	for i, record := range records {
		anon, err := AnonymizePerson(record.Person, now)
		if err != nil {
			dropped := report.Drop(i, record.ID.String(), err)
			a.logger.Warn("record dropped", "error", dropped)
			continue
		}
		out = append(out, anon)
	}

	report.Out = len(out)
	a.logger.Info("anonymized records", "report", report)
	return out, report
}

// AnonymizePerson keeps city, country, the age bucket and the email provider; everything
// else that identifies the person becomes MaskToken.
func AnonymizePerson(p domain.Person, now time.Time) (domain.AnonymizedRecord, error) {
	ageGroup, err := AgeGroup(p.Birthday, now)
	if err != nil {
		return domain.AnonymizedRecord{}, err
	}
	provider, err := EmailProvider(p.Email)
	if err != nil {
		return domain.AnonymizedRecord{}, err
	}

	return domain.AnonymizedRecord{
		Firstname:      domain.MaskToken,
		Lastname:       domain.MaskToken,
		Email:          domain.MaskToken + "@" + provider,
		Phone:          domain.MaskToken,
		Birthday:       domain.MaskToken,
		Gender:         domain.MaskToken,
		Street:         domain.MaskToken,
		StreetName:     domain.MaskToken,
		BuildingNumber: domain.MaskToken,
		City:           p.Address.City,
		Zipcode:        domain.MaskToken,
		Country:        p.Address.Country,
		CountyCode:     domain.MaskToken,
		Latitude:       domain.MaskToken,
		Longitude:      domain.MaskToken,
		Website:        domain.MaskToken,
		Image:          domain.MaskToken,
		AgeGroup:       ageGroup,
		EmailProvider:  provider,
	}, nil
}

// AgeGroup buckets currentYear-birthYear into a decade label such as "[30-39]".
func AgeGroup(birthday string, now time.Time) (string, error) {
	born, err := time.Parse(DateLayout, birthday)
	if err != nil {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidDate, birthday)
	}
	age := now.Year() - born.Year()
	decade := floorDiv(age, 10) * 10
	return fmt.Sprintf("[%d-%d]", decade, decade+9), nil
}

// EmailProvider returns the part of email between the first @ and the next one.
func EmailProvider(email string) (string, error) {
	_, rest, ok := strings.Cut(email, "@")
	provider, _, _ := strings.Cut(rest, "@")
	if !ok || provider == "" {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidEmail, email)
	}
	return provider, nil
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
