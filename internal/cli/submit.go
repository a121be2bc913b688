package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dvidovic/lokator/internal/dateutil"
	"github.com/dvidovic/lokator/internal/holiday"
	"github.com/dvidovic/lokator/internal/record"
)

// NewSubmitCommand creates the submit command: stamp, merge and save a
// batch of day entries for one person.
func NewSubmitCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		person     string
		department string
		employeeID string
		note       string
		source     string
		entries    []string
	)
	cmd := &cobra.Command{
		Use:   "submit --person NAME --entry DATE=LOCATION ...",
		Short: "Submit work-location entries for a person",
		Long: `Submit one or more day entries and synchronize the ledger.

Each --entry is DATE=LOCATION, e.g. --entry "01.09.2025.=Ured". An empty
location clears the day. Public holidays are pre-populated and cannot be
submitted over.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubmit(rootOpts, cmd, person, department, employeeID, note, source, entries)
		},
	}
	cmd.Flags().StringVar(&person, "person", "", "person display name (required)")
	cmd.Flags().StringVar(&department, "department", "", "department")
	cmd.Flags().StringVar(&employeeID, "employee-id", "", "opaque employee identifier (preferred identity key)")
	cmd.Flags().StringVar(&note, "note", "", "free-text note attached to each entry")
	cmd.Flags().StringVar(&source, "source", "cli", "provenance tag recorded on each row")
	cmd.Flags().StringArrayVar(&entries, "entry", nil, "DATE=LOCATION pair (repeatable)")
	cmd.MarkFlagRequired("person")
	return cmd
}

func runSubmit(opts *RootOptions, cmd *cobra.Command, person, department, employeeID, note, source string, entries []string) error {
	f := newFormatter(opts, cmd)
	if len(entries) == 0 {
		return &ExitError{Code: ExitCommandError, Message: "at least one --entry is required"}
	}

	rows := make([]record.Record, 0, len(entries))
	for _, e := range entries {
		raw, loc, ok := strings.Cut(e, "=")
		if !ok {
			return &ExitError{Code: ExitCommandError, Message: fmt.Sprintf("malformed --entry %q: want DATE=LOCATION", e)}
		}
		d, parsed := dateutil.Parse(raw)
		if !parsed {
			return &ExitError{Code: ExitCommandError, Message: fmt.Sprintf("unparseable date %q", raw)}
		}
		if hol, err := holiday.ForYear(d.Year); err == nil {
			if name, isHoliday := hol[d]; isHoliday {
				return &ExitError{Code: ExitFailure,
					Message: fmt.Sprintf("%s is a public holiday (%s); holiday entries are not editable", d.Display(), name)}
			}
		}
		if strings.EqualFold(strings.TrimSpace(loc), "neradni dan") {
			return &ExitError{Code: ExitFailure, Message: `the value "Neradni dan" is reserved for holidays`}
		}
		rows = append(rows, record.Record{
			Datum:      d.Display(),
			Dan:        dateutil.WeekdayNameHR(d.Weekday()),
			PersonName: person,
			Department: department,
			EmployeeID: employeeID,
			Location:   strings.TrimSpace(loc),
			DateISO:    d.ISO(),
			Note:       note,
		})
	}

	adapter, _, log, err := buildAdapter(opts)
	if err != nil {
		return &ExitError{Code: ExitCommandError, Message: "configure sync", Err: err}
	}
	defer log.Sync()

	persisted, saveErr := adapter.Save(cmd.Context(), rows, source)
	status := adapter.Status()

	if f.JSON() {
		out := map[string]any{
			"submitted": len(rows),
			"ledger":    len(persisted),
			"origin":    status.Origin,
			"degraded":  status.Degraded,
			"pending":   status.PendingCount,
		}
		if saveErr != nil {
			out["notice"] = saveErr.Error()
		}
		if err := f.PrintJSON(out); err != nil {
			return err
		}
	} else {
		f.Printf("Saved %d entries; ledger now has %d rows.\n", len(rows), len(persisted))
		if status.Notice != "" {
			f.Printf("Notice: %s\n", status.Notice)
		}
	}

	if saveErr != nil {
		// The batch is safe (cache + pending queue) but did not reach the
		// remote store; report it as a degraded, non-zero outcome.
		return &ExitError{Code: ExitFailure, Message: "ledger saved locally, remote sync incomplete", Err: saveErr}
	}
	return nil
}
