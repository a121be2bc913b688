package merge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvidovic/lokator/internal/record"
)

func fixedClock(s string) func() time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t }
}

func TestStamp_DerivesIdentityAndBookkeeping(t *testing.T) {
	st := Stamper{Now: fixedClock("2025-09-01T08:30:00Z")}

	out := st.Stamp([]record.Record{
		{Datum: "01.09.2025.", PersonName: "Ana Anić", Location: "Ured"},
	}, "local")
	require.Len(t, out, 1)

	r := out[0]
	assert.Equal(t, "2025-09-01", r.DateISO)
	assert.Equal(t, record.NewID("Ana Anić", "2025-09-01"), r.RecordID)
	assert.Equal(t, "2025-09-01T08:30:00Z", r.CreatedAt)
	assert.Equal(t, "2025-09-01T08:30:00Z", r.UpdatedAt)
	assert.Equal(t, 1, r.Version)
	assert.Equal(t, "local", r.Source)
	assert.Equal(t, "Ponedjeljak", r.Dan)
}

func TestStamp_FillsDatumFromISO(t *testing.T) {
	st := Stamper{Now: fixedClock("2025-09-01T08:30:00Z")}

	out := st.Stamp([]record.Record{
		{DateISO: "2025-09-01", PersonName: "Ana Anić"},
	}, "local")
	assert.Equal(t, "01.09.2025.", out[0].Datum)
}

func TestStamp_Idempotent(t *testing.T) {
	first := Stamper{Now: fixedClock("2025-09-01T08:30:00Z")}
	second := Stamper{Now: fixedClock("2025-12-24T18:00:00Z")}

	once := first.Stamp([]record.Record{
		{Datum: "01.09.2025.", PersonName: "Ana Anić", Location: "Ured"},
	}, "local")
	twice := second.Stamp(once, "remote")

	assert.Equal(t, once, twice)
}

func TestStamp_NeverOverwritesPresentFields(t *testing.T) {
	st := Stamper{Now: fixedClock("2025-09-01T08:30:00Z")}

	out := st.Stamp([]record.Record{{
		Datum:      "01.09.2025.",
		PersonName: "Ana Anić",
		DateISO:    "2025-09-01",
		RecordID:   "preassigned",
		CreatedAt:  "2025-01-01T00:00:00Z",
		UpdatedAt:  "2025-01-02T00:00:00Z",
		Version:    3,
		Source:     "remote",
	}}, "local")

	r := out[0]
	assert.Equal(t, "preassigned", r.RecordID)
	assert.Equal(t, "2025-01-01T00:00:00Z", r.CreatedAt)
	assert.Equal(t, "2025-01-02T00:00:00Z", r.UpdatedAt)
	assert.Equal(t, 3, r.Version)
	assert.Equal(t, "remote", r.Source)
}

func TestStamp_UnparseableDateStaysIndeterminate(t *testing.T) {
	st := Stamper{Now: fixedClock("2025-09-01T08:30:00Z")}

	out := st.Stamp([]record.Record{
		{Datum: "sutra", PersonName: "Ana Anić"},
	}, "local")

	r := out[0]
	assert.Empty(t, r.DateISO)
	assert.True(t, r.Indeterminate())
	// The id is still assigned so the row replays idempotently.
	assert.Equal(t, record.NewID("Ana Anić", ""), r.RecordID)
}
