// Package refdata loads the reference tables the tracker joins against:
// the employee roster and the location catalog. Both arrive as CSV
// exports in assorted dialects and header spellings, so loading goes
// through the same separator/encoding sniffing as the ledger itself.
package refdata

import (
	"fmt"
	"os"
	"strings"

	"github.com/dvidovic/lokator/internal/columns"
	"github.com/dvidovic/lokator/internal/store"
)

// Employee is one roster row.
type Employee struct {
	Name       string
	Department string
	Email      string
	Manager    string
	Director   string
}

// employee header aliases, in Fold() form, per column.
var (
	nameAliases = []string{"name", "imeiprezime", "zaposlenik", "employee"}
	deptAliases = []string{"department", "odjel", "odjeljenje", "orgunit", "organizacijskajedinica"}
	mailAliases = []string{"email", "mail", "kontaktemail"}
	mgrAliases  = []string{"manager", "menadzer", "prvinadredeni", "nadredeni", "linemanager"}
	dirAliases  = []string{"director", "direktor", "druginadredeni"}
)

// LoadEmployees reads the roster file. Name, department and email columns
// are required; manager and director are optional and default empty.
func LoadEmployees(path string) ([]Employee, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("refdata: read employees: %w", err)
	}
	return ParseEmployees(b)
}

// ParseEmployees decodes roster bytes.
func ParseEmployees(b []byte) ([]Employee, error) {
	t, err := store.ReadTable(b, 0)
	if err != nil {
		return nil, fmt.Errorf("refdata: parse employees: %w", err)
	}
	idx := headerIndex(t.Header)
	nameCol := pick(idx, nameAliases)
	deptCol := pick(idx, deptAliases)
	mailCol := pick(idx, mailAliases)
	var missing []string
	if nameCol < 0 {
		missing = append(missing, "Name / Ime i prezime")
	}
	if deptCol < 0 {
		missing = append(missing, "Department / Odjel")
	}
	if mailCol < 0 {
		missing = append(missing, "eMail / E-mail")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("refdata: employees file is missing required columns: %s (found: %v)",
			strings.Join(missing, ", "), t.Header)
	}
	mgrCol := pick(idx, mgrAliases)
	dirCol := pick(idx, dirAliases)

	out := make([]Employee, 0, len(t.Rows))
	for _, row := range t.Rows {
		e := Employee{
			Name:       field(row, nameCol),
			Department: field(row, deptCol),
			Email:      field(row, mailCol),
			Manager:    field(row, mgrCol),
			Director:   field(row, dirCol),
		}
		if e.Name == "" && e.Email == "" {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// ByEmail indexes a roster by lowercased, trimmed email — the join key
// the form layer identifies people with.
func ByEmail(emps []Employee) map[string]Employee {
	out := make(map[string]Employee, len(emps))
	for _, e := range emps {
		key := strings.ToLower(strings.TrimSpace(e.Email))
		if key == "" {
			continue
		}
		if _, exists := out[key]; !exists {
			out[key] = e
		}
	}
	return out
}

func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		key := columns.Fold(h)
		if _, exists := idx[key]; !exists {
			idx[key] = i
		}
	}
	return idx
}

func pick(idx map[string]int, aliases []string) int {
	for _, a := range aliases {
		if i, ok := idx[a]; ok {
			return i
		}
	}
	return -1
}

func field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
