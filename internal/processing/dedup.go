package processing

import (
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"PersonsPipeline/internal/domain"
)

// Deduplicator splits cleaned records into first occurrences and repeats.
type Deduplicator struct {
	logger *slog.Logger
}

// NewDeduplicator builds a Deduplicator.
func NewDeduplicator(logger *slog.Logger) *Deduplicator {
	return &Deduplicator{logger: orDiscard(logger)}
}

// Deduplicate walks records in input order; the first record of each canonical key is unique,
// every later one is a duplicate.
func (d *Deduplicator) Deduplicate(records []domain.CleanedRecord) (unique, duplicates []domain.CleanedRecord, report domain.StageReport) {
	report = domain.StageReport{Stage: domain.StageDeduplicate, In: len(records)}
	seen := make(map[string]struct{}, len(records))

	for _, record := range records {
		key := CanonicalKey(record.Person)
		if _, ok := seen[key]; ok {
			duplicates = append(duplicates, record)
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, record)
	}

	report.Out = len(unique)
	d.logger.Info("deduplicated records", "report", report, "duplicates", len(duplicates))
	return unique, duplicates, report
}

// CanonicalKey renders the person's fields sorted by name, followed by the address
// fields sorted by name. The person id is left out; the address keeps its own id.
func CanonicalKey(p domain.Person) string {
	var b strings.Builder
	writeFields(&b, p.Fields())
	b.WriteString("|")
	writeFields(&b, p.Address.Fields())
	return b.String()
}

func writeFields(b *strings.Builder, fields []domain.Field) {
	slices.SortFunc(fields, func(x, y domain.Field) int {
		return strings.Compare(x.Name, y.Name)
	})
	for _, f := range fields {
		b.WriteString(strconv.Quote(f.Name))
		b.WriteByte('=')
		b.WriteString(strconv.Quote(f.Value))
		b.WriteByte(';')
	}
}
