package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/noah-isme/huddle-api/pkg/clock"
)

func (a *App) clockCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clock",
		Short: "Parse, format and step 12-hour times",
	}
	cmd.AddCommand(a.clockParseCmd(), a.clockFormatCmd(), a.clockStepCmd())
	return cmd
}

func (a *App) clockParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <value>",
		Short: "Parse a display string such as \"2:30 pm\"",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			t, err := clock.Parse(args[0])
			if err != nil {
				return err
			}
			if t.IsUnset() {
				a.printf(colorMuted, "unset\n")
				return nil
			}
			fmt.Fprintf(a.out, "%s (%d minutes)\n", t, t.Minutes())
			return nil
		},
	}
}

func (a *App) clockFormatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "format <minutes>",
		Short: "Format minutes since midnight",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			m, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("minutes must be an integer: %w", err)
			}
			fmt.Fprintln(a.out, clock.Format(m))
			return nil
		},
	}
}

func (a *App) clockStepCmd() *cobra.Command {
	var back bool
	var minRaw, maxRaw, afterRaw, beforeRaw string

	cmd := &cobra.Command{
		Use:   "step <value>",
		Short: "Move a time by one quantum within optional bounds",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			t, err := clock.Parse(args[0])
			if err != nil {
				return err
			}
			bounds := clock.Bounds{}
			for _, f := range []struct {
				raw  string
				dest *clock.Time
				name string
			}{
				{minRaw, &bounds.Min, "min"},
				{maxRaw, &bounds.Max, "max"},
				{afterRaw, &bounds.After, "after"},
				{beforeRaw, &bounds.Before, "before"},
			} {
				if *f.dest, err = clock.Parse(f.raw); err != nil {
					return fmt.Errorf("--%s: %w", f.name, err)
				}
			}

			dir := clock.Forward
			if back {
				dir = clock.Backward
			}
			next, ok := clock.Step(t, dir, bounds)
			if !ok {
				a.printf(colorBad, "%s (blocked)\n", next)
				return nil
			}
			a.printf(colorGood, "%s\n", next)
			return nil
		},
	}
	cmd.Flags().BoolVar(&back, "back", false, "Step backward")
	cmd.Flags().StringVar(&minRaw, "min", "", "Earliest allowed time")
	cmd.Flags().StringVar(&maxRaw, "max", "", "Latest allowed time")
	cmd.Flags().StringVar(&afterRaw, "after", "", "Result must be strictly after this time")
	cmd.Flags().StringVar(&beforeRaw, "before", "", "Result must be strictly before this time")
	return cmd
}

func (a *App) overlapCmd() *cobra.Command {
	var baseRaw string
	var responsesRaw []string

	cmd := &cobra.Command{
		Use:   "overlap",
		Short: "Intersect a base range with responses",
		Example: `  huddlectl overlap --base "3:00 pm-5:00 pm" \
    --response "3:30 pm-5:00 pm" --response "4:00 pm-4:45 pm"`,
		RunE: func(_ *cobra.Command, _ []string) error {
			base, err := parseRange(baseRaw)
			if err != nil {
				return fmt.Errorf("--base: %w", err)
			}
			responses := make([]clock.Range, 0, len(responsesRaw))
			for _, raw := range responsesRaw {
				r, err := parseRange(raw)
				if err != nil {
					a.printf(colorMuted, "skipping %q: %v\n", raw, err)
					continue
				}
				responses = append(responses, r)
			}

			overlap, ok := clock.Intersect(base, responses...)
			if !ok {
				a.printf(colorBad, "no overlap\n")
				return nil
			}
			a.printf(colorGood, "%s", overlap)
			fmt.Fprintf(a.out, " (%d minutes)\n", overlap.Duration())
			return nil
		},
	}
	cmd.Flags().StringVar(&baseRaw, "base", "", "Base range, e.g. \"9:00 am-5:00 pm\"")
	cmd.Flags().StringArrayVar(&responsesRaw, "response", nil, "Response range (repeatable)")
	_ = cmd.MarkFlagRequired("base")
	return cmd
}

// parseRange reads "start-end". Display times never contain '-', so the
// first dash separates the two ends.
func parseRange(raw string) (clock.Range, error) {
	start, end, ok := strings.Cut(raw, "-")
	if !ok {
		return clock.Range{}, fmt.Errorf("%q: want start-end", raw)
	}
	return clock.NewRange(strings.TrimSpace(start), strings.TrimSpace(end))
}
