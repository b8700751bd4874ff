// Package cli implements the vitalcore command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// Execute runs the command line against os.Args and exits non-zero on failure.
func Execute() {
	if err := Run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Run executes one command line with the given streams, releasing the store afterwards.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) (err error) {
	root, a := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	defer func() {
		err = errors.Join(err, a.close())
	}()
	return root.ExecuteContext(ctx)
}

// NewRootCmd builds a fresh command tree.
func NewRootCmd() *cobra.Command {
	root, _ := newRootCmd()
	return root
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{}
	root := &cobra.Command{
		Use:   "vitalcore",
		Short: "Track daily vitals and run structured health experiments",
		Long: `vitalcore records daily vitals, runs multi-day experiments from a fixed
catalog, and derives simple recommendations from recent readings.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.reportMetrics(cmd.OutOrStdout())
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", defaultConfigPath(), "path to the YAML config file")
	flags.StringVar(&a.user, "user", "", "user id (overrides config)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	flags.BoolVar(&a.printMetrics, "metrics", false, "print operation metrics after the command")

	root.AddCommand(
		newCatalogCmd(a),
		newExperimentCmd(a),
		newVitalsCmd(a),
		newRecommendCmd(a),
	)
	return root, a
}

func defaultConfigPath() string {
	if p := os.Getenv("VITALCORE_CONFIG"); p != "" {
		return p
	}
	return "vitalcore.yaml"
}
