package cli

import (
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/dvidovic/lokator/internal/dateutil"
	"github.com/dvidovic/lokator/internal/holiday"
)

type holidayOutput struct {
	Date string `json:"date"`
	Day  string `json:"day"`
	Name string `json:"name"`
}

// NewHolidaysCommand creates the holidays command: list Croatian public
// holidays for a year.
func NewHolidaysCommand(rootOpts *RootOptions) *cobra.Command {
	var year int
	cmd := &cobra.Command{
		Use:           "holidays",
		Short:         "List Croatian public holidays for a year",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHolidays(rootOpts, cmd, year)
		},
	}
	cmd.Flags().IntVar(&year, "year", time.Now().Year(), "calendar year")
	return cmd
}

func runHolidays(opts *RootOptions, cmd *cobra.Command, year int) error {
	f := newFormatter(opts, cmd)
	hol, err := holiday.ForYear(year)
	if err != nil {
		return &ExitError{Code: ExitCommandError, Message: "compute holidays", Err: err}
	}

	dates := make([]dateutil.Date, 0, len(hol))
	for d := range hol {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	if f.JSON() {
		out := make([]holidayOutput, 0, len(dates))
		for _, d := range dates {
			out = append(out, holidayOutput{
				Date: d.ISO(),
				Day:  dateutil.WeekdayNameHR(d.Weekday()),
				Name: hol[d],
			})
		}
		return f.PrintJSON(out)
	}
	for _, d := range dates {
		f.Printf("%s  %-11s %s\n", d.Display(), dateutil.WeekdayNameHR(d.Weekday()), hol[d])
	}
	return nil
}
