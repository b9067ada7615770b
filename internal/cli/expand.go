package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/bensuskins/household-hub/internal/recurrence"
	"github.com/spf13/cobra"
)

type expandOptions struct {
	frequency string
	unit      string
	interval  int
	anchor    string
	until     string
	weekdays  []int
	monthDay  int
	month     int
	from      string
	to        string
	max       int
}

// ExpandResult is the JSON payload of the expand command.
type ExpandResult struct {
	Occurrences []time.Time `json:"occurrences"`
	Truncated   bool        `json:"truncated"`
}

func NewExpandCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &expandOptions{}

	cmd := &cobra.Command{
		Use:   "expand",
		Short: "Print the occurrences of a recurrence rule",
		Long: `Expand a recurrence rule inside a date window without touching the database.

Dates are YYYY-MM-DD; --anchor also accepts an RFC 3339 time for timed series.
Weekdays are 0 (Monday) through 6 (Sunday).`,
		Example: `  household-hub expand --freq MONTHLY --anchor 2024-01-31 --to 2024-06-30
  household-hub expand --unit WEEK --interval 2 --anchor 2024-03-04T09:00:00Z --weekday 0,3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)
			result, allDay, err := runExpand(opts)
			if err != nil {
				return formatter.Error(err)
			}
			formatter.VerboseLog("expanded %d occurrences", len(result.Occurrences))
			return formatter.Success(result, func(w io.Writer) error {
				return writeExpansion(w, result, allDay, opts.max)
			})
		},
	}

	cmd.Flags().StringVar(&opts.frequency, "freq", "DAILY", "frequency (NONE|DAILY|WEEKLY|MONTHLY|YEARLY)")
	cmd.Flags().StringVar(&opts.unit, "unit", "", "custom unit (DAY|WEEK|MONTH), overrides --freq")
	cmd.Flags().IntVar(&opts.interval, "interval", 1, "repeat every N periods")
	cmd.Flags().StringVar(&opts.anchor, "anchor", "", "first occurrence (required)")
	cmd.Flags().StringVar(&opts.until, "until", "", "last date the rule may produce")
	cmd.Flags().IntSliceVar(&opts.weekdays, "weekday", nil, "weekdays for weekly rules")
	cmd.Flags().IntVar(&opts.monthDay, "monthday", 0, "day of month for monthly and yearly rules")
	cmd.Flags().IntVar(&opts.month, "month", 0, "month for yearly rules")
	cmd.Flags().StringVar(&opts.from, "from", "", "window start date (default: anchor date)")
	cmd.Flags().StringVar(&opts.to, "to", "", "window end date (default: one year after --from)")
	cmd.Flags().IntVar(&opts.max, "max", recurrence.DefaultMaxOccurrences, "maximum occurrences to print")
	cmd.MarkFlagRequired("anchor")

	return cmd
}

func runExpand(opts *expandOptions) (ExpandResult, bool, error) {
	anchor, err := recurrence.ParseDateOrTime(opts.anchor)
	if err != nil {
		return ExpandResult{}, false, fmt.Errorf("parsing --anchor: %w", err)
	}

	frequency, err := recurrence.ParseFrequency(opts.frequency)
	if err != nil {
		return ExpandResult{}, false, err
	}
	if opts.unit != "" {
		if frequency, err = recurrence.FromCustom(recurrence.CustomUnit(opts.unit)); err != nil {
			return ExpandResult{}, false, err
		}
	}

	rule := recurrence.Rule{
		Frequency:  frequency,
		Interval:   opts.interval,
		Anchor:     anchor,
		ByWeekday:  opts.weekdays,
		ByMonthDay: opts.monthDay,
		ByMonth:    opts.month,
	}
	if opts.until != "" {
		until, err := recurrence.ParseDate(opts.until)
		if err != nil {
			return ExpandResult{}, false, fmt.Errorf("parsing --until: %w", err)
		}
		rule.EndDate = &until
	}
	if err := recurrence.Validate(rule); err != nil {
		return ExpandResult{}, false, err
	}

	from := recurrence.DateOf(anchor)
	if opts.from != "" {
		if from, err = recurrence.ParseDate(opts.from); err != nil {
			return ExpandResult{}, false, fmt.Errorf("parsing --from: %w", err)
		}
	}
	to := from.AddDate(1, 0, 0)
	if opts.to != "" {
		if to, err = recurrence.ParseDate(opts.to); err != nil {
			return ExpandResult{}, false, fmt.Errorf("parsing --to: %w", err)
		}
	}

	result, err := recurrence.NewEngine(opts.max).Generate(rule, recurrence.DateWindow(from, to))
	if err != nil {
		return ExpandResult{}, false, err
	}
	if result.Dates == nil {
		result.Dates = []time.Time{}
	}
	allDay := anchor.Equal(recurrence.DateOf(anchor))
	return ExpandResult{Occurrences: result.Dates, Truncated: result.Truncated}, allDay, nil
}

func writeExpansion(w io.Writer, result ExpandResult, allDay bool, limit int) error {
	for _, date := range result.Occurrences {
		value := date.Format(time.RFC3339)
		if allDay {
			value = recurrence.FormatDate(date)
		}
		if _, err := fmt.Fprintf(w, "%s %s\n", value, date.Format("Mon")); err != nil {
			return err
		}
	}

	summary := fmt.Sprintf("%d occurrences", len(result.Occurrences))
	if result.Truncated {
		summary += fmt.Sprintf(" (truncated at %d)", limit)
	}
	_, err := fmt.Fprintln(w, summary)
	return err
}
