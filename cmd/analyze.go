package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/viktsys/gasinsight/analysis"
	"github.com/viktsys/gasinsight/models"
)

var (
	analyzeFlags   requestFlags
	analyzeSection string
	analyzeJSON    bool
	compareWeeks   bool
)

var analyzeCMD = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a day or a date range",
	Long:  `Load, clean and aggregate the sensors for the selected days and print daily consumption, data health, totals and averages.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := analyzeFlags.request()
		if err != nil {
			return err
		}
		section := models.Section(analyzeSection)
		if analyzeSection != "" && !section.Valid() {
			return fmt.Errorf("unknown section %q", analyzeSection)
		}

		a, err := newApp()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if compareWeeks {
			if section == "" {
				section = models.SectionByC
			}
			cmp, err := a.pipeline.CompareWeeks(cmd.Context(), req, section, "", "")
			if errors.Is(err, analysis.ErrInsufficientHistory) {
				fmt.Fprintln(out, "Not enough weeks to compare, widen the date range.")
				return nil
			}
			if err != nil {
				return err
			}
			printComparison(out, cmp)
			return nil
		}

		res, err := a.pipeline.Run(cmd.Context(), req)
		if errors.Is(err, analysis.ErrEmptySelection) {
			fmt.Fprintln(out, "No data for the selected range.")
			return nil
		}
		if err != nil {
			return err
		}

		if analyzeJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(res.WithoutStreams())
		}
		printResult(out, res, section)
		return nil
	},
}

func init() {
	analyzeFlags.register(analyzeCMD)
	analyzeCMD.Flags().StringVar(&analyzeSection, "section", "", "only print this section (byc, pisos, erm, interno, horno)")
	analyzeCMD.Flags().BoolVar(&analyzeJSON, "json", false, "print the full result as JSON")
	analyzeCMD.Flags().BoolVar(&compareWeeks, "compare-weeks", false, "compare the last two weeks of the section")
}

func printResult(out io.Writer, res *analysis.Result, only models.Section) {
	fmt.Fprintf(out, "Analysis %s  %s .. %s  policy=%s\n", res.ID,
		res.Request.Start.Format(models.DateLayout), res.Request.End.Format(models.DateLayout), res.Policy.Name)
	fmt.Fprintf(out, "Data health: %.2f%%\n", res.Health)
	for _, w := range res.Warnings {
		fmt.Fprintf(out, "warning: %s\n", w)
	}

	for _, section := range models.AllSections {
		if only != "" && section != only {
			continue
		}
		fmt.Fprintf(out, "\n%s (health %.2f%%)\n", section.Label(), res.SectionHealth[section])
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "DAY\tCONSUMPTION\tRECORDS\tHEALTH")
		for _, d := range res.Daily[section] {
			fmt.Fprintf(tw, "%s\t%.2f\t%d/%d\t%.1f%%\n", d.DayLabel, d.Consumption, d.ActualRecords, d.ExpectedRecords, d.HealthPct)
		}
		tw.Flush()
	}

	if only != "" {
		return
	}
	fmt.Fprintln(out, "\nTotals")
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, t := range res.Totals {
		fmt.Fprintf(tw, "%s\t%.2f\n", t.Name, t.Consumption)
	}
	tw.Flush()

	fmt.Fprintln(out, "\nDaily averages")
	tw = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, a := range res.Averages {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\n", a.Group, a.Section.Label(), a.Average)
	}
	tw.Flush()
}

func printComparison(out io.Writer, cmp models.WeekComparison) {
	fmt.Fprintf(out, "%s: %s vs %s\n", cmp.Section.Label(), cmp.First.Label, cmp.Second.Label)
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "WEEKDAY\t%s\t%s\n", cmp.First.Key, cmp.Second.Key)
	value := func(v *float64) string {
		if v == nil {
			return "-"
		}
		return fmt.Sprintf("%.2f", *v)
	}
	for _, row := range cmp.Rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", row.Name, value(row.First), value(row.Second))
	}
	tw.Flush()
}
