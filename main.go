package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "0.0.1"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "carrierbridge",
	Short:   "BRT carrier integration toolbox - shipments, tracking, PUDO, manifests",
	Version: version,
}

var trackCmd = &cobra.Command{
	Use:   "track <parcelID>",
	Short: "Fetch the tracking status of a parcel",
	Args:  cobra.ExactArgs(1),
	RunE:  runTrack,
}

var pudoCmd = &cobra.Command{
	Use:   "pudo",
	Short: "Search pickup/drop-off points by address or coordinates",
	RunE:  runPudo,
}

var routeCmd = &cobra.Command{
	Use:   "route <shipment.json>",
	Short: "Request a routing quote for a shipment described in a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE:  runRoute,
}

var manifestCmd = &cobra.Command{
	Use:   "manifest <shipments.json>",
	Short: "Request the official manifest for confirmed shipments",
	Args:  cobra.ExactArgs(1),
	RunE:  runManifest,
}

func init() {
	pudoCmd.Flags().String("zip", "", "destination ZIP code")
	pudoCmd.Flags().String("city", "", "destination city")
	pudoCmd.Flags().String("country", "", "destination country (alpha-2 or alpha-3)")
	pudoCmd.Flags().String("lat", "", "latitude for coordinate search")
	pudoCmd.Flags().String("lng", "", "longitude for coordinate search")
	pudoCmd.Flags().Int("max", 0, "maximum number of results (1-25)")

	rootCmd.AddCommand(trackCmd, pudoCmd, routeCmd, manifestCmd)
}

// printJSON renders a command result for the terminal.
func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
