package processing

import (
	"log/slog"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"PersonsPipeline/internal/domain"
)

var nonDigitExpr = regexp.MustCompile(`\D+`)

// Cleaner normalizes casing and formatting of valid records.
type Cleaner struct {
	logger *slog.Logger
}

// NewCleaner builds a Cleaner.
func NewCleaner(logger *slog.Logger) *Cleaner {
	return &Cleaner{logger: orDiscard(logger)}
}

// Clean returns one cleaned record per valid record.
func (c *Cleaner) Clean(records []domain.ValidRecord) ([]domain.CleanedRecord, domain.StageReport) {
	report := domain.StageReport{Stage: domain.StageClean, In: len(records)}
	cleaned := make([]domain.CleanedRecord, 0, len(records))

	for _, record := range records {
		cleaned = append(cleaned, domain.CleanedRecord{Person: CleanPerson(record.Person)})
	}

	report.Out = len(cleaned)
	c.logger.Info("cleaned records", "report", report)
	return cleaned, report
}

// CleanPerson lower-cases the email, capitalizes the names and strips non-digits from the phone.
// Empty names stay empty. It is idempotent.
func CleanPerson(p domain.Person) domain.Person {
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	p.Firstname = capitalize(strings.TrimSpace(p.Firstname))
	p.Lastname = capitalize(strings.TrimSpace(p.Lastname))

	if p.Phone != nil {
		digits := nonDigitExpr.ReplaceAllString(*p.Phone, "")
		p.Phone = &digits
	}
	return p
}

// capitalize upper-cases the first letter and keeps the rest as is.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
