package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	blobcore "vitalcore/internal/blob/core"
	"vitalcore/internal/core"
	"vitalcore/internal/recommend"
	"vitalcore/pkg/domain"
)

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(time.DateOnly)
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return t, nil
}

func printTemplate(out io.Writer, tpl domain.ExperimentTemplate) {
	fmt.Fprintf(out, "%s (%s)\n", tpl.Title, tpl.ID)
	fmt.Fprintf(out, "Category: %s  Duration: %d days\n", tpl.Category, tpl.DurationDays)
	if tpl.Summary != "" {
		fmt.Fprintf(out, "\n%s\n", tpl.Summary)
	}
	if tpl.Instructions != "" {
		fmt.Fprintf(out, "\nInstructions:\n%s\n", strings.TrimRight(tpl.Instructions, "\n"))
	}
	if len(tpl.DailyChecklistItems) > 0 {
		fmt.Fprintln(out, "\nDaily checklist:")
		for _, item := range tpl.DailyChecklistItems {
			fmt.Fprintf(out, "  %s  %s\n", item.ID, item.Text)
		}
	}
	if len(tpl.MeasurementInputs) > 0 {
		fmt.Fprintln(out, "\nMeasurements:")
		for _, in := range tpl.MeasurementInputs {
			fmt.Fprintf(out, "  %s  %s (%s, %g-%g)\n", in.ID, in.Label, in.Unit, in.Min, in.Max)
		}
	}
}

func printInstances(out io.Writer, instances []domain.ExperimentInstance) error {
	if len(instances) == 0 {
		fmt.Fprintln(out, "No experiments.")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTEMPLATE\tSTATUS\tSTARTED\tLOGS")
	for _, inst := range instances {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", inst.ID, inst.TemplateID, inst.Status, formatDate(inst.StartDate), len(inst.DailyLog))
	}
	return w.Flush()
}

func printExperiment(out io.Writer, view core.ExperimentView) {
	inst := view.Instance
	fmt.Fprintf(out, "%s (%s)\n", view.Template.Title, inst.ID)
	fmt.Fprintf(out, "Status: %s  Started: %s", inst.Status, formatDate(inst.StartDate))
	if inst.CompletedAt != nil {
		fmt.Fprintf(out, "  Completed: %s", formatDate(*inst.CompletedAt))
	}
	fmt.Fprintf(out, "\nDay %d of %d (%.0f%%)\n", view.CurrentDay, view.Template.DurationDays, view.Progress*100)

	if len(view.Template.DailyChecklistItems) > 0 {
		fmt.Fprintln(out, "\nChecklist:")
		for _, item := range view.Template.DailyChecklistItems {
			mark := " "
			if inst.ChecklistDone(item.ID) {
				mark = "x"
			}
			fmt.Fprintf(out, "  [%s] %s  %s\n", mark, item.ID, item.Text)
		}
	}
	if days := inst.Measurements.Days(); len(days) > 0 {
		fmt.Fprintln(out, "\nMeasurements:")
		for _, day := range days {
			values := inst.Measurements.Day(day)
			for _, in := range view.Template.MeasurementInputs {
				if v, ok := values[in.ID]; ok {
					fmt.Fprintf(out, "  day %d  %s = %g %s\n", day, in.ID, v.Value, v.Unit)
				}
			}
		}
	}
	if len(inst.DailyLog) > 0 {
		fmt.Fprintln(out, "\nLog:")
		for _, entry := range inst.DailyLog {
			fmt.Fprintf(out, "  %s", entry.Timestamp.Format(time.RFC3339))
			if entry.Temperature != nil {
				fmt.Fprintf(out, "  %.1f°F", *entry.Temperature)
			}
			if entry.Pulse != nil {
				fmt.Fprintf(out, "  %d bpm", *entry.Pulse)
			}
			if entry.Notes != "" {
				fmt.Fprintf(out, "  %s", entry.Notes)
			}
			fmt.Fprintln(out)
		}
	}
}

func printVitals(out io.Writer, records []domain.DailyVitalsRecord) error {
	if len(records) == 0 {
		fmt.Fprintln(out, "No vitals recorded.")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tTEMP\tPULSE\tENERGY\tSLEEP\tSTRESS\tDIGESTION\tMOOD")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%.1f\t%d\t%d\t%d\t%d\t%s\t%s\n",
			formatDate(r.Date), r.Temperature, r.Pulse, r.Energy, r.Sleep, r.Stress, r.Digestion, r.Mood)
	}
	return w.Flush()
}

func printRecommendations(out io.Writer, ids []string) {
	if len(ids) == 0 {
		fmt.Fprintln(out, "No recommendations yet. Log at least three days of vitals.")
		return
	}
	for _, id := range ids {
		desc, _ := recommend.Describe(id)
		fmt.Fprintf(out, "- %s: %s\n", id, desc)
	}
}

func printArchives(out io.Writer, objs []blobcore.Object) error {
	if len(objs) == 0 {
		fmt.Fprintln(out, "No archives.")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tARCHIVED\tSIZE")
	for _, o := range objs {
		fmt.Fprintf(w, "%s\t%s\t%d\n", core.ArchiveInstanceID(o.Key), o.Modified.Format(time.RFC3339), o.Size)
	}
	return w.Flush()
}

func printArchive(out io.Writer, doc core.ExperimentArchive) {
	inst := doc.Instance
	fmt.Fprintf(out, "%s (%s)\n", doc.TemplateTitle, inst.ID)
	fmt.Fprintf(out, "Started: %s", formatDate(inst.StartDate))
	if inst.CompletedAt != nil {
		fmt.Fprintf(out, "  Completed: %s", formatDate(*inst.CompletedAt))
	}
	fmt.Fprintf(out, "\nArchived: %s\n", doc.ArchivedAt.Format(time.RFC3339))
	fmt.Fprintf(out, "Logs: %d  Measured days: %d\n", len(inst.DailyLog), len(inst.Measurements.Days()))
	if doc.Insight != "" {
		fmt.Fprintf(out, "\n%s\n", doc.Insight)
	}
}
