// Package analytics aggregates the ledger for the admin views: location
// distribution, per-person office/remote KPIs, and the monthly
// remote-share trend. Chart rendering is the caller's problem; this
// package only crunches rows.
package analytics

import (
	"sort"
	"strings"

	"github.com/dvidovic/lokator/internal/record"
	"github.com/dvidovic/lokator/internal/refdata"
)

// Filter narrows a ledger before aggregation. Empty slices mean "no
// restriction" for that dimension.
type Filter struct {
	Years       []int
	Quarters    []int
	Months      []int
	Departments []string
	People      []string
}

// Apply returns the rows matching every populated filter dimension. Rows
// without a parseable date only survive when no calendar dimension is
// restricted.
func Apply(ledger []record.Record, f Filter) []record.Record {
	out := make([]record.Record, 0, len(ledger))
	for _, r := range ledger {
		d := r.Date()
		if len(f.Years) > 0 && (d.IsZero() || !containsInt(f.Years, d.Year)) {
			continue
		}
		if len(f.Quarters) > 0 && (d.IsZero() || !containsInt(f.Quarters, d.Quarter())) {
			continue
		}
		if len(f.Months) > 0 && (d.IsZero() || !containsInt(f.Months, int(d.Month))) {
			continue
		}
		if len(f.Departments) > 0 && !containsFold(f.Departments, r.Department) {
			continue
		}
		if len(f.People) > 0 && !containsFold(f.People, r.PersonName) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// LocationCount is one slice of the location distribution.
type LocationCount struct {
	Location string
	Count    int
	Pct      float64
}

// ByLocation counts rows per location value, largest first. Cleared rows
// (empty location) are excluded.
func ByLocation(rows []record.Record) []LocationCount {
	counts := map[string]int{}
	total := 0
	for _, r := range rows {
		if r.Cleared() {
			continue
		}
		counts[strings.TrimSpace(r.Location)]++
		total++
	}
	out := make([]LocationCount, 0, len(counts))
	for loc, n := range counts {
		pct := 0.0
		if total > 0 {
			pct = float64(n) / float64(total) * 100
		}
		out = append(out, LocationCount{Location: loc, Count: n, Pct: pct})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Location < out[j].Location
	})
	return out
}

// FoldSmall merges categories under thresholdPct of the total into a
// single "Ostalo" bucket, keeping the admin charts readable.
func FoldSmall(counts []LocationCount, thresholdPct float64) []LocationCount {
	var kept []LocationCount
	other := LocationCount{Location: "Ostalo"}
	total := 0
	for _, c := range counts {
		total += c.Count
	}
	for _, c := range counts {
		if c.Pct >= thresholdPct {
			kept = append(kept, c)
			continue
		}
		other.Count += c.Count
	}
	if other.Count > 0 {
		if total > 0 {
			other.Pct = float64(other.Count) / float64(total) * 100
		}
		kept = append(kept, other)
	}
	return kept
}

// PersonKPI is one person's office/remote/other split.
type PersonKPI struct {
	PersonName string
	Office     int
	Remote     int
	Other      int
	Total      int
	RemotePct  float64
}

// officeNames are the location spellings counted as office work.
var officeNames = map[string]bool{"ured": true}

// PerPerson computes the office/remote/other KPI per person, ordered by
// remote count then remote share, both descending.
func PerPerson(rows []record.Record) []PersonKPI {
	byPerson := map[string][]record.Record{}
	var order []string
	for _, r := range rows {
		name := strings.TrimSpace(r.PersonName)
		if name == "" {
			continue
		}
		if _, seen := byPerson[name]; !seen {
			order = append(order, name)
		}
		byPerson[name] = append(byPerson[name], r)
	}
	out := make([]PersonKPI, 0, len(order))
	for _, name := range order {
		kpi := PersonKPI{PersonName: name}
		for _, r := range byPerson[name] {
			kpi.Total++
			loc := strings.ToLower(strings.TrimSpace(r.Location))
			switch {
			case officeNames[loc]:
				kpi.Office++
			case refdata.IsRemoteValue(loc):
				kpi.Remote++
			default:
				kpi.Other++
			}
		}
		if kpi.Total > 0 {
			kpi.RemotePct = float64(kpi.Remote) / float64(kpi.Total) * 100
		}
		out = append(out, kpi)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Remote != out[j].Remote {
			return out[i].Remote > out[j].Remote
		}
		return out[i].RemotePct > out[j].RemotePct
	})
	return out
}

// MonthShare is one month's remote share.
type MonthShare struct {
	Year      int
	Month     int
	RemotePct float64
}

// MonthlyRemoteShare computes the remote percentage per calendar month,
// chronologically. Rows without a parseable date are skipped.
func MonthlyRemoteShare(rows []record.Record) []MonthShare {
	type bucket struct{ remote, total int }
	buckets := map[[2]int]*bucket{}
	for _, r := range rows {
		d := r.Date()
		if d.IsZero() {
			continue
		}
		key := [2]int{d.Year, int(d.Month)}
		b := buckets[key]
		if b == nil {
			b = &bucket{}
			buckets[key] = b
		}
		b.total++
		if refdata.IsRemoteValue(r.Location) {
			b.remote++
		}
	}
	out := make([]MonthShare, 0, len(buckets))
	for key, b := range buckets {
		share := MonthShare{Year: key[0], Month: key[1]}
		if b.total > 0 {
			share.RemotePct = float64(b.remote) / float64(b.total) * 100
		}
		out = append(out, share)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out
}

func containsInt(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

func containsFold(xs []string, v string) bool {
	for _, x := range xs {
		if strings.EqualFold(strings.TrimSpace(x), strings.TrimSpace(v)) {
			return true
		}
	}
	return false
}
