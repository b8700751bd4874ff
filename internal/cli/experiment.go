package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"vitalcore/internal/core"
	"vitalcore/pkg/domain"
)

func newExperimentCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "experiment",
		Aliases: []string{"exp"},
		Short:   "Start, log and finish experiments",
	}
	cmd.AddCommand(
		newExperimentStartCmd(a),
		newExperimentLogCmd(a),
		newExperimentMeasureCmd(a),
		newExperimentChecklistCmd(a),
		newExperimentCompleteCmd(a),
		newExperimentStopCmd(a),
		newExperimentListCmd(a),
		newExperimentShowCmd(a),
		newExperimentInsightCmd(a),
		newExperimentArchiveCmd(a),
		newExperimentArchivesCmd(a),
		newExperimentArchivedCmd(a),
	)
	return cmd
}

func newExperimentStartCmd(a *app) *cobra.Command {
	var on string
	cmd := &cobra.Command{
		Use:   "start <template-id>",
		Short: "Start an experiment from the catalog",
		Long: `Start an experiment from the catalog. Only one active instance per template
is allowed; complete or stop the current one first.

Examples:
  vitalcore experiment start morning-temperature-baseline
  vitalcore experiment start daily-walk --on 2024-01-01`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd.Context(), false)
			if err != nil {
				return err
			}
			var inst domain.ExperimentInstance
			if on != "" {
				start, err := parseDate(on)
				if err != nil {
					return err
				}
				inst, err = svc.StartExperimentOn(cmd.Context(), a.userID(), args[0], start)
				if err != nil {
					return err
				}
			} else {
				inst, err = svc.StartExperiment(cmd.Context(), a.userID(), args[0])
				if err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Started %s: %s\n", inst.TemplateID, inst.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&on, "on", "", "start date (YYYY-MM-DD), defaults to today")
	return cmd
}

func newExperimentLogCmd(a *app) *cobra.Command {
	var (
		temp  float64
		pulse int
		notes string
	)
	cmd := &cobra.Command{
		Use:   "log <experiment-id>",
		Short: "Log today's temperature, pulse and notes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd.Context(), false)
			if err != nil {
				return err
			}
			in := core.LogInput{Notes: notes}
			if cmd.Flags().Changed("temp") {
				in.Temperature = &temp
			}
			if cmd.Flags().Changed("pulse") {
				in.Pulse = &pulse
			}
			inst, err := svc.LogExperimentDay(cmd.Context(), a.userID(), args[0], in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged entry %d for %s\n", len(inst.DailyLog), inst.ID)
			return nil
		},
	}
	cmd.Flags().Float64Var(&temp, "temp", 0, "temperature in °F")
	cmd.Flags().IntVar(&pulse, "pulse", 0, "pulse in bpm")
	cmd.Flags().StringVar(&notes, "notes", "", "free-text notes")
	return cmd
}

func newExperimentMeasureCmd(a *app) *cobra.Command {
	var (
		day  int
		unit string
	)
	cmd := &cobra.Command{
		Use:   "measure <experiment-id> <input-id> <value>",
		Short: "Record a measurement for a day (defaults to the current day)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return fmt.Errorf("invalid value %q: %w", args[2], err)
			}
			svc, err := a.service(cmd.Context(), false)
			if err != nil {
				return err
			}
			if day == 0 {
				view, err := svc.GetExperiment(cmd.Context(), a.userID(), args[0])
				if err != nil {
					return err
				}
				day = view.CurrentDay
			}
			v, err := svc.RecordMeasurement(cmd.Context(), a.userID(), args[0], day, args[1], value, unit)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Day %d %s = %g %s\n", day, args[1], v.Value, v.Unit)
			return nil
		},
	}
	cmd.Flags().IntVar(&day, "day", 0, "experiment day number")
	cmd.Flags().StringVar(&unit, "unit", "", "unit, must match the template's")
	return cmd
}

func newExperimentChecklistCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "checklist <experiment-id> <item-id>",
		Short: "Toggle a checklist item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd.Context(), false)
			if err != nil {
				return err
			}
			inst, err := svc.ToggleChecklist(cmd.Context(), a.userID(), args[0], args[1])
			if err != nil {
				return err
			}
			state := "unchecked"
			if inst.ChecklistDone(args[1]) {
				state = "checked"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", args[1], state)
			return nil
		},
	}
}

func newExperimentCompleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "complete <experiment-id>",
		Short: "Mark an experiment completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd.Context(), false)
			if err != nil {
				return err
			}
			inst, err := svc.CompleteExperiment(cmd.Context(), a.userID(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Completed %s on %s\n", inst.ID, formatDate(*inst.CompletedAt))
			return nil
		},
	}
}

func newExperimentStopCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stop <experiment-id>",
		Short: "Discard an experiment that has not been completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd.Context(), false)
			if err != nil {
				return err
			}
			if err := svc.StopExperiment(cmd.Context(), a.userID(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stopped %s\n", args[0])
			return nil
		},
	}
}

func newExperimentListCmd(a *app) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List active experiments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.service(cmd.Context(), false)
			if err != nil {
				return err
			}
			list := svc.ListActiveExperiments
			if all {
				list = svc.ListExperiments
			}
			instances, err := list(cmd.Context(), a.userID())
			if err != nil {
				return err
			}
			return printInstances(cmd.OutOrStdout(), instances)
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include completed experiments")
	return cmd
}

func newExperimentShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <experiment-id>",
		Short: "Show an experiment's progress, checklist, measurements and log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd.Context(), false)
			if err != nil {
				return err
			}
			view, err := svc.GetExperiment(cmd.Context(), a.userID(), args[0])
			if err != nil {
				return err
			}
			printExperiment(cmd.OutOrStdout(), view)
			return nil
		},
	}
}

func newExperimentInsightCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "insight <experiment-id>",
		Short: "Generate commentary on an experiment's log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd.Context(), false)
			if err != nil {
				return err
			}
			text, err := svc.ExperimentInsight(cmd.Context(), a.userID(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
}

func newExperimentArchiveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "archive <experiment-id>",
		Short: "Write a completed experiment to the archive store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd.Context(), true)
			if err != nil {
				return err
			}
			info, err := svc.ArchiveExperiment(cmd.Context(), a.userID(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Archived %s (%d bytes)\n", info.Key, info.Size)
			return nil
		},
	}
}

func newExperimentArchivesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "archives",
		Short: "List archived experiments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.service(cmd.Context(), true)
			if err != nil {
				return err
			}
			objs, err := svc.ListArchives(cmd.Context(), a.userID())
			if err != nil {
				return err
			}
			return printArchives(cmd.OutOrStdout(), objs)
		},
	}
}

func newExperimentArchivedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "archived <experiment-id>",
		Short: "Show an archived experiment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd.Context(), true)
			if err != nil {
				return err
			}
			doc, err := svc.ReadArchive(cmd.Context(), a.userID(), args[0])
			if err != nil {
				return err
			}
			printArchive(cmd.OutOrStdout(), doc)
			return nil
		},
	}
}
