package store

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvidovic/lokator/internal/columns"
	"github.com/dvidovic/lokator/internal/record"
)

func TestReadTable_SemicolonDefault(t *testing.T) {
	in := []byte("Datum;Ime i prezime;Lokacija\n01.09.2025.;Ana Anić;Ured\n")

	tbl, err := ReadTable(in, DefaultSeparator)
	require.NoError(t, err)
	assert.Equal(t, ';', tbl.Separator)
	assert.Equal(t, []string{"Datum", "Ime i prezime", "Lokacija"}, tbl.Header)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, []string{"01.09.2025.", "Ana Anić", "Ured"}, tbl.Rows[0])
}

func TestReadTable_SniffsCommaFallback(t *testing.T) {
	in := []byte("Datum,Ime i prezime,Lokacija\n01.09.2025.,Ana Anić,Ured\n")

	tbl, err := ReadTable(in, DefaultSeparator)
	require.NoError(t, err)
	assert.Equal(t, ',', tbl.Separator)
	assert.Len(t, tbl.Header, 3)
}

func TestReadTable_SniffsTab(t *testing.T) {
	in := []byte("Datum\tIme i prezime\tLokacija\n01.09.2025.\tAna Anić\tUred\n")

	tbl, err := ReadTable(in, DefaultSeparator)
	require.NoError(t, err)
	assert.Equal(t, '\t', tbl.Separator)
}

func TestReadTable_StripsBOM(t *testing.T) {
	in := append([]byte{0xEF, 0xBB, 0xBF}, []byte("Datum;Ime i prezime;Lokacija\n")...)

	tbl, err := ReadTable(in, DefaultSeparator)
	require.NoError(t, err)
	assert.Equal(t, "Datum", tbl.Header[0])
}

func TestReadTable_Windows1250(t *testing.T) {
	// "Pero Perić;Čakovec" in cp1250: ć=0xE6, Č=0xC8.
	in := []byte("Datum;Ime i prezime;Lokacija\n01.09.2025.;Pero Peri\xe6;\xc8akovec\n")

	tbl, err := ReadTable(in, DefaultSeparator)
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, "Pero Perić", tbl.Rows[0][1])
	assert.Equal(t, "Čakovec", tbl.Rows[0][2])
}

func TestReadTable_SingleColumnBestEffort(t *testing.T) {
	tbl, err := ReadTable([]byte("Lokacija\nUred\nRemote\n"), DefaultSeparator)
	require.NoError(t, err)
	assert.Equal(t, []string{"Lokacija"}, tbl.Header)
	assert.Len(t, tbl.Rows, 2)
}

func TestDecodeLedger_NormalizesAndSkipsBlank(t *testing.T) {
	in := []byte("Datum;Employee;Location\n01.09.2025.;Ana Anić;Ured\n;;\n02.09.2025.;Ivo Ivić;Remote\n")

	recs, err := DecodeLedger(in, DefaultSeparator)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "Ana Anić", recs[0].PersonName)
	assert.Equal(t, "Ured", recs[0].Location)
	assert.Equal(t, "Ivo Ivić", recs[1].PersonName)
}

func TestDecodeLedger_LenientFieldFailures(t *testing.T) {
	in := []byte("Datum;Ime i prezime;Lokacija;Week\n01.09.2025.;Ana Anić;Ured;not-a-number\n")

	recs, err := DecodeLedger(in, DefaultSeparator)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Zero(t, recs[0].Week)
	assert.Equal(t, "Ana Anić", recs[0].PersonName)
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	ledger := []record.Record{
		{
			Datum: "01.09.2025.", Dan: "Ponedjeljak", PersonName: "Ana Anić",
			Department: "Sales", Location: "Ured; zgrada B",
			Week: 36, Month: 9, Year: 2025,
			DateISO: "2025-09-01", RecordID: record.NewID("Ana Anić", "2025-09-01"),
			CreatedAt: "2025-09-01T08:30:00Z", UpdatedAt: "2025-09-01T08:30:00Z",
			Version: 1, Source: "local",
			Extra: map[string]string{"Projekt": "Alpha"},
		},
	}

	b, err := EncodeLedger(ledger, DefaultSeparator)
	require.NoError(t, err)

	back, err := DecodeLedger(b, DefaultSeparator)
	require.NoError(t, err)
	require.Len(t, back, 1)
	assert.Equal(t, ledger[0], back[0])
}

func TestDecodeEncode_KeepsContactColumn(t *testing.T) {
	in := []byte("Datum;Ime i prezime;E-mail;Lokacija\n01.09.2025.;Ana Anić;ana@example.com;Ured\n")

	recs, err := DecodeLedger(in, DefaultSeparator)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "ana@example.com", recs[0].Extra[columns.ColEmail])

	// Rewriting the file keeps the contact column, under its canonical
	// header spelling.
	out, err := EncodeLedger(recs, DefaultSeparator)
	require.NoError(t, err)
	assert.Contains(t, string(out), columns.ColEmail)
	assert.Contains(t, string(out), "ana@example.com")
}

func TestEncodeLedger_Golden(t *testing.T) {
	ledger := []record.Record{
		{
			Datum: "02.09.2025.", Dan: "Utorak", PersonName: "Ivo Ivić",
			Department: "IT", Location: "Remote",
			Week: 36, Month: 9, Year: 2025,
			DateISO: "2025-09-02", RecordID: record.NewID("Ivo Ivić", "2025-09-02"),
			CreatedAt: "2025-09-02T07:45:00Z", UpdatedAt: "2025-09-02T07:45:00Z",
			Version: 1, Source: "remote",
		},
		{
			Datum: "01.09.2025.", Dan: "Ponedjeljak", PersonName: "Ana Anić",
			Department: "Sales", Location: "Ured",
			Week: 36, Month: 9, Year: 2025,
			DateISO: "2025-09-01", RecordID: record.NewID("Ana Anić", "2025-09-01"),
			CreatedAt: "2025-09-01T08:30:00Z", UpdatedAt: "2025-09-01T08:30:00Z",
			Version: 2, Source: "local",
		},
	}

	b, err := EncodeLedger(ledger, DefaultSeparator)
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "ledger", b)
}
