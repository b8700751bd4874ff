package cli

import "github.com/spf13/cobra"

func newRecommendCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "recommend",
		Short: "Suggest changes based on the last week of vitals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.service(cmd.Context(), false)
			if err != nil {
				return err
			}
			ids, err := svc.GetRecommendations(cmd.Context(), a.userID())
			if err != nil {
				return err
			}
			printRecommendations(cmd.OutOrStdout(), ids)
			return nil
		},
	}
}
