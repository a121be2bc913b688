package refdata

import (
	"fmt"
	"os"
	"strings"

	"github.com/dvidovic/lokator/internal/columns"
	"github.com/dvidovic/lokator/internal/store"
)

// Location is one row of the normalized location catalog.
type Location struct {
	ID      string
	Name    string
	Type    string
	Aliases []string
}

// LoadLocationNames reads the simple one-column location list: distinct
// non-empty values in file order. The "Neradni dan" pseudo-location is a
// holiday marker, never a selectable location.
func LoadLocationNames(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("refdata: read locations: %w", err)
	}
	t, err := store.ReadTable(b, 0)
	if err != nil {
		return nil, fmt.Errorf("refdata: parse locations: %w", err)
	}
	seen := map[string]bool{}
	var out []string
	for _, row := range t.Rows {
		v := field(row, 0)
		if v == "" || strings.EqualFold(v, "neradni dan") || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out, nil
}

// LoadLocationCatalog reads the normalized catalog
// (location_id/name/type/aliases). A missing file yields an empty
// catalog: the catalog is an optional enrichment, not a requirement.
func LoadLocationCatalog(path string) ([]Location, error) {
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("refdata: read location catalog: %w", err)
	}
	t, err := store.ReadTable(b, 0)
	if err != nil {
		return nil, fmt.Errorf("refdata: parse location catalog: %w", err)
	}
	idx := headerIndex(t.Header)
	idCol := pick(idx, []string{"locationid", "id"})
	nameCol := pick(idx, []string{"name", "naziv", "lokacija"})
	typeCol := pick(idx, []string{"type", "tip"})
	aliasCol := pick(idx, []string{"aliases", "alias"})

	out := make([]Location, 0, len(t.Rows))
	for _, row := range t.Rows {
		loc := Location{
			ID:   field(row, idCol),
			Name: field(row, nameCol),
			Type: field(row, typeCol),
		}
		if raw := field(row, aliasCol); raw != "" {
			for _, a := range strings.Split(raw, "|") {
				if a = strings.TrimSpace(a); a != "" {
					loc.Aliases = append(loc.Aliases, a)
				}
			}
		}
		if loc.ID == "" && loc.Name == "" {
			continue
		}
		out = append(out, loc)
	}
	return out, nil
}

// Resolve finds the catalog entry for a free-text location value by name
// or alias, accent- and case-insensitively.
func Resolve(catalog []Location, value string) (Location, bool) {
	folded := columns.Fold(value)
	if folded == "" {
		return Location{}, false
	}
	for _, loc := range catalog {
		if columns.Fold(loc.Name) == folded {
			return loc, true
		}
		for _, a := range loc.Aliases {
			if columns.Fold(a) == folded {
				return loc, true
			}
		}
	}
	return Location{}, false
}

// IsRemoteValue classifies a location string as remote work. The matching
// is substring-based: historical data carries every spelling of
// "rad od kuće" imaginable.
func IsRemoteValue(s string) bool {
	l := strings.ToLower(s)
	return strings.Contains(l, "remote") ||
		strings.Contains(l, "rad od ku") ||
		strings.Contains(l, "work from home") ||
		strings.Contains(l, "home office")
}
