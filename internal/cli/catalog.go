package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"vitalcore/pkg/domain"
)

func newCatalogCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Browse experiment templates",
	}

	var category string
	list := &cobra.Command{
		Use:   "list",
		Short: "List experiment templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			templates := a.catalog.Templates()
			if category != "" {
				c := domain.Category(category)
				if !c.Valid() {
					return fmt.Errorf("unknown category %q", category)
				}
				templates = a.catalog.ByCategory(c)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tDAYS\tCATEGORY")
			for _, tpl := range templates {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", tpl.ID, tpl.Title, tpl.DurationDays, tpl.Category)
			}
			return w.Flush()
		},
	}
	list.Flags().StringVar(&category, "category", "", "only show templates in this category")

	show := &cobra.Command{
		Use:   "show <template-id>",
		Short: "Show a template's instructions, checklist and inputs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tpl, ok := a.catalog.Template(args[0])
			if !ok {
				return domain.NotFound(domain.EntityTemplate, args[0])
			}
			printTemplate(cmd.OutOrStdout(), tpl)
			return nil
		},
	}

	cmd.AddCommand(list, show)
	return cmd
}
