package cli

import (
	"github.com/spf13/cobra"

	"github.com/sweet-meenu/urbanpulse-sub000/internal/domain"
)

func init() {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Print the dashboard for a location",
		Long:  "Builds the dashboard view-model once and prints it as JSON. Without --lat/--lon the configured default location is used.",
		Args:  cobra.NoArgs,
		Run:   runDashboard,
	}

	cmd.Flags().Float64("lat", 0, "Latitude")
	cmd.Flags().Float64("lon", 0, "Longitude")
	cmd.MarkFlagsRequiredTogether("lat", "lon")

	RootCmd.AddCommand(cmd)
}

func runDashboard(cmd *cobra.Command, args []string) {
	var point *domain.Coordinates
	if cmd.Flags().Changed("lat") {
		lat, _ := cmd.Flags().GetFloat64("lat")
		lon, _ := cmd.Flags().GetFloat64("lon")
		point = &domain.Coordinates{Lat: lat, Lon: lon}
	}

	cfg.Storage.Enabled = false
	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		exitErr("init", err)
	}
	defer a.Close()

	view, err := a.services.Dashboard.Build(cmd.Context(), point)
	if err != nil {
		exitErr("dashboard", err)
	}
	printJSON(cmd, view)
}
