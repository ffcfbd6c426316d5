package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search places by name",
		Args:  cobra.MinimumNArgs(1),
		Run:   runSearch,
	}

	RootCmd.AddCommand(cmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	query := strings.Join(args, " ")

	cfg.Storage.Enabled = false
	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		exitErr("init", err)
	}
	defer a.Close()

	printJSON(cmd, a.services.Locations.Search(cmd.Context(), query))
}
