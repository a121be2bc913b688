// Package columns maps the header soup of historical tracker files onto a
// fixed canonical schema.
//
// The ledger CSV gained and renamed columns across versions: Croatian and
// English spellings, inconsistent casing, stray whitespace, diacritics.
// Matching here is case-insensitive, accent-insensitive and
// whitespace-collapsed, backed by a fixed synonym table. Unrecognized
// headers pass through unchanged so newer files never lose columns when
// read by older code.
package columns

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Canonical column names. Croatian display columns keep their original
// spelling because they are the on-disk header contract.
const (
	ColDatum        = "Datum"
	ColDan          = "Dan"
	ColPersonName   = "Ime i prezime"
	ColDepartment   = "Odjel"
	ColLocation     = "Lokacija"
	ColWeek         = "Week"
	ColMonth        = "Month"
	ColYear         = "Year"
	ColDateISO      = "date_iso"
	ColRecordID     = "record_id"
	ColEmployeeID   = "employee_id"
	ColCreatedAt    = "created_at"
	ColUpdatedAt    = "updated_at"
	ColVersion      = "version"
	ColSource       = "source"
	ColLocationID   = "location_id"
	ColLocationName = "location_name"
	ColNote         = "Napomena"
	ColEmail        = "eMail"
)

// Canonical is the preferred column order for persisted ledgers. Unknown
// extra columns are appended after these on write.
var Canonical = []string{
	ColDatum, ColDan, ColPersonName, ColDepartment, ColLocation,
	ColWeek, ColMonth, ColYear,
	ColDateISO, ColRecordID, ColCreatedAt, ColUpdatedAt, ColVersion, ColSource,
	ColEmployeeID, ColLocationID, ColLocationName, ColNote,
}

// synonyms maps folded header spellings to canonical names.
// Keys must be in Fold() form.
var synonyms = map[string]string{
	"datum": ColDatum,
	"date":  ColDatum,

	"dan": ColDan,
	"day": ColDan,

	"imeiprezime": ColPersonName,
	"name":        ColPersonName,
	"employee":    ColPersonName,
	"zaposlenik":  ColPersonName,
	"osoba":       ColPersonName,

	"odjel":                  ColDepartment,
	"odjeljenje":             ColDepartment,
	"department":             ColDepartment,
	"orgunit":                ColDepartment,
	"organizacijskajedinica": ColDepartment,

	"lokacija": ColLocation,
	"location": ColLocation,

	"week":   ColWeek,
	"tjedan": ColWeek,

	"month":  ColMonth,
	"mjesec": ColMonth,

	"year":   ColYear,
	"godina": ColYear,

	"dateiso":      ColDateISO,
	"recordid":     ColRecordID,
	"employeeid":   ColEmployeeID,
	"zaposlenikid": ColEmployeeID,
	"createdat":    ColCreatedAt,
	"updatedat":    ColUpdatedAt,
	"version":      ColVersion,
	"verzija":      ColVersion,
	"source":       ColSource,
	"izvor":        ColSource,
	"locationid":   ColLocationID,
	"locationname": ColLocationName,

	"napomena": ColNote,
	"note":     ColNote,
	"komentar": ColNote,

	// eMail is canonicalized but deliberately not part of Canonical:
	// ledger records carry it as an extra column rather than a schema
	// field of their own.
	"email":        ColEmail,
	"mail":         ColEmail,
	"kontaktemail": ColEmail,
}

// Fold normalizes a header for matching: NFD-decompose and drop combining
// marks (č → c), lowercase, and discard everything outside [a-z0-9].
func Fold(s string) string {
	var b strings.Builder
	for _, r := range norm.NFD.String(s) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		r = unicode.ToLower(r)
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CanonicalName resolves a raw header to its canonical column name.
// Unrecognized headers are returned whitespace-collapsed but otherwise
// unchanged, preserving unknown columns end to end.
func CanonicalName(raw string) string {
	collapsed := strings.Join(strings.Fields(raw), " ")
	folded := Fold(collapsed)
	if c, ok := synonyms[folded]; ok {
		return c
	}
	// Legacy files embed qualifiers around the known names
	// ("Lokacija rada", "Datum unosa"). Substring fallback mirrors how
	// earlier versions matched these.
	switch {
	case strings.Contains(folded, "imeiprezime"):
		return ColPersonName
	case strings.Contains(folded, "datum"):
		return ColDatum
	case strings.Contains(folded, "odjel"):
		return ColDepartment
	case strings.Contains(folded, "lokacija"):
		return ColLocation
	}
	return collapsed
}

// NormalizeHeader canonicalizes a header row in order. Duplicate columns
// after normalization keep their first occurrence; later duplicates are
// reported in the second return value by index so readers can skip them.
func NormalizeHeader(header []string) ([]string, map[int]bool) {
	out := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	dup := make(map[int]bool)
	for i, h := range header {
		name := CanonicalName(h)
		if seen[name] {
			dup[i] = true
		}
		seen[name] = true
		out[i] = name
	}
	return out, dup
}

// NormalizeRow builds a canonical field map from one data row under the
// given raw header. First occurrence wins for duplicated columns; every
// canonical column is present in the result, synthesized empty when the
// input lacks it.
func NormalizeRow(header, fields []string) map[string]string {
	names, dup := NormalizeHeader(header)
	row := make(map[string]string, len(Canonical)+len(fields))
	for i, name := range names {
		if dup[i] || i >= len(fields) {
			continue
		}
		row[name] = fields[i]
	}
	EnsureCanonical(row)
	return row
}

// EnsureCanonical adds any missing canonical column as an empty string so
// downstream code can assume the full set exists.
func EnsureCanonical(row map[string]string) {
	for _, c := range Canonical {
		if _, ok := row[c]; !ok {
			row[c] = ""
		}
	}
}

// IsCanonical reports whether name is part of the canonical schema.
func IsCanonical(name string) bool {
	for _, c := range Canonical {
		if c == name {
			return true
		}
	}
	return false
}
