package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kubecostopt/costopt-backend/internal/api"
	"github.com/kubecostopt/costopt-backend/internal/services"
)

var startCmd = &cobra.Command{Use: "start", Short: "Use to start costopt-backend services"}

var ingestorCmd = &cobra.Command{
	Use:   "ingestor",
	Short: "starts costopt telemetry ingestor",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("starting costopt telemetry ingestor")
		services.StartIngestor()
	},
}

var detectorCmd = &cobra.Command{
	Use:   "detector",
	Short: "starts costopt anomaly detector",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("starting costopt anomaly detector")
		services.StartDetector()
	},
}

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "starts costopt api server",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("starting costopt api server")
		api.StartAPIServer()
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
	startCmd.AddCommand(ingestorCmd)
	startCmd.AddCommand(detectorCmd)
	startCmd.AddCommand(apiCmd)
}
