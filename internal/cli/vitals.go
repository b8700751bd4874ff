package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"vitalcore/pkg/domain"
)

func newVitalsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vitals",
		Short: "Record and review daily vitals",
	}
	cmd.AddCommand(newVitalsRecordCmd(a), newVitalsListCmd(a))
	return cmd
}

func newVitalsRecordCmd(a *app) *cobra.Command {
	var (
		on        string
		rec       domain.DailyVitalsRecord
		digestion string
		mood      string
	)
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record today's vitals (a repeat for the same date replaces it)",
		Long: `Record one day's vitals. Submitting again for the same date updates the
existing record.

Checklist indices refer to:
  0 ` + domain.DailyChecklist[0] + `
  1 ` + domain.DailyChecklist[1] + `
  2 ` + domain.DailyChecklist[2] + `
  3 ` + domain.DailyChecklist[3] + `
  4 ` + domain.DailyChecklist[4] + `

Example:
  vitalcore vitals record --temp 97.6 --pulse 78 --energy 6 --sleep 7 --stress 4 --digestion good --mood okay`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if on != "" {
				d, err := parseDate(on)
				if err != nil {
					return err
				}
				rec.Date = d
			}
			rec.Digestion = domain.Digestion(digestion)
			rec.Mood = domain.Mood(mood)
			svc, err := a.service(cmd.Context(), false)
			if err != nil {
				return err
			}
			saved, err := svc.RecordVitals(cmd.Context(), a.userID(), rec)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded vitals for %s\n", saved.Date.Format(time.DateOnly))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&on, "date", "", "date (YYYY-MM-DD), defaults to today")
	f.Float64Var(&rec.Temperature, "temp", 0, "temperature in °F")
	f.IntVar(&rec.Pulse, "pulse", 0, "resting pulse in bpm")
	f.IntVar(&rec.Energy, "energy", 0, "energy 1-10")
	f.IntVar(&rec.Sleep, "sleep", 0, "sleep quality 1-10")
	f.IntVar(&rec.Stress, "stress", 0, "stress 1-10")
	f.StringVar(&digestion, "digestion", string(domain.DigestionOkay), "good, okay or poor")
	f.StringVar(&mood, "mood", string(domain.MoodOkay), "good, okay or bad")
	f.StringVar(&rec.Notes, "notes", "", "free-text notes")
	f.StringVar(&rec.SymptomNotes, "symptoms", "", "symptom notes")
	f.IntSliceVar(&rec.ChecklistCompleted, "checklist", nil, "completed daily checklist indices")
	for _, name := range []string{"temp", "pulse", "energy", "sleep", "stress"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newVitalsListCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded vitals, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.service(cmd.Context(), false)
			if err != nil {
				return err
			}
			records, err := svc.ListVitals(cmd.Context(), a.userID())
			if err != nil {
				return err
			}
			if limit > 0 && len(records) > limit {
				records = records[:limit]
			}
			return printVitals(cmd.OutOrStdout(), records)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 14, "maximum records to show (0 for all)")
	return cmd
}
