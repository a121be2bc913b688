package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvidovic/lokator/internal/record"
)

func TestValidate_CleanLedger(t *testing.T) {
	ledger := Merge(nil, []record.Record{
		entry("Ana Anić", "2025-09-01", "Ured", "2025-09-01T08:00:00Z"),
		entry("Ivo Ivić", "2025-09-02", "Remote", "2025-09-02T08:00:00Z"),
	})
	assert.Nil(t, Validate(ledger))
}

func TestValidate_DuplicateKey(t *testing.T) {
	ledger := []record.Record{
		entry("Ana Anić", "2025-09-01", "Ured", "2025-09-01T08:00:00Z"),
		entry("Ana Anić", "2025-09-01", "Remote", "2025-09-01T09:00:00Z"),
	}

	out := Validate(ledger)
	require.Len(t, out, 1)
	assert.Equal(t, AnomalyDuplicateKey, out[0].Code)
	assert.Equal(t, "Ana Anić|2025-09-01", out[0].Key)
}

func TestValidate_BadDate(t *testing.T) {
	out := Validate([]record.Record{
		{PersonName: "Ana Anić", Datum: "uskoro"},
	})
	require.Len(t, out, 1)
	assert.Equal(t, AnomalyBadDate, out[0].Code)
}

func TestValidate_MissingPerson(t *testing.T) {
	out := Validate([]record.Record{
		{DateISO: "2025-09-01", Location: "Ured"},
	})
	require.Len(t, out, 1)
	assert.Equal(t, AnomalyMissingPerson, out[0].Code)
}

func TestValidate_DeterministicOrder(t *testing.T) {
	ledger := []record.Record{
		entry("Ivo Ivić", "2025-09-01", "Ured", ""),
		entry("Ivo Ivić", "2025-09-01", "Remote", ""),
		entry("Ana Anić", "2025-09-02", "Ured", ""),
		entry("Ana Anić", "2025-09-02", "Teren", ""),
	}

	first := Validate(ledger)
	require.Len(t, first, 2)
	assert.Equal(t, "Ivo Ivić|2025-09-01", first[0].Key)
	assert.Equal(t, "Ana Anić|2025-09-02", first[1].Key)

	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Validate(ledger))
	}
}

func TestAnomalyString(t *testing.T) {
	a := Anomaly{Code: AnomalyDuplicateKey, Message: "2 rows share one identity key", Key: "Ana Anić|2025-09-01"}
	assert.Equal(t, `DUPLICATE_KEY: 2 rows share one identity key (key="Ana Anić|2025-09-01")`, a.String())
}
