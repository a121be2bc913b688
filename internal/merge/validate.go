package merge

import (
	"fmt"

	"github.com/dvidovic/lokator/internal/record"
)

// AnomalyCode categorizes schema validation findings.
type AnomalyCode string

const (
	// AnomalyDuplicateKey indicates two ledger rows share an identity key
	// after a merge, which violates identity uniqueness.
	AnomalyDuplicateKey AnomalyCode = "DUPLICATE_KEY"

	// AnomalyBadDate indicates a row whose date_iso is missing or does not
	// parse as a calendar date.
	AnomalyBadDate AnomalyCode = "BAD_DATE"

	// AnomalyMissingPerson indicates a row with no person name and no
	// employee id.
	AnomalyMissingPerson AnomalyCode = "MISSING_PERSON"
)

// Anomaly is one named schema finding. Validation reports anomalies to the
// caller; whether an anomaly blocks a write or merely warns is the
// caller's policy.
type Anomaly struct {
	Code    AnomalyCode
	Message string
	// Key identifies the offending identity key where applicable.
	Key string
}

func (a Anomaly) String() string {
	if a.Key != "" {
		return fmt.Sprintf("%s: %s (key=%q)", a.Code, a.Message, a.Key)
	}
	return fmt.Sprintf("%s: %s", a.Code, a.Message)
}

// Validate checks a ledger against the canonical schema invariants and
// returns every anomaly found. A nil result means the ledger is clean.
func Validate(ledger []record.Record) []Anomaly {
	var out []Anomaly
	seen := make(map[string]int, len(ledger))
	var keyOrder []string
	for _, r := range ledger {
		if !r.Indeterminate() {
			key := r.IdentityKey()
			if seen[key] == 0 {
				keyOrder = append(keyOrder, key)
			}
			seen[key]++
		}
		if r.Owner() == "" {
			out = append(out, Anomaly{
				Code:    AnomalyMissingPerson,
				Message: "row has neither person name nor employee id",
			})
		}
		if d := r.Date(); d.IsZero() {
			out = append(out, Anomaly{
				Code:    AnomalyBadDate,
				Message: fmt.Sprintf("row has no parseable date_iso (Datum=%q)", r.Datum),
				Key:     r.IdentityKey(),
			})
		}
	}
	for _, key := range keyOrder {
		if n := seen[key]; n > 1 {
			out = append(out, Anomaly{
				Code:    AnomalyDuplicateKey,
				Message: fmt.Sprintf("%d rows share one identity key", n),
				Key:     key,
			})
		}
	}
	return out
}
