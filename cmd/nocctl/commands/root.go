// Package commands implements the nocctl CLI commands.
package commands

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	// client talks to the running nocsimd admin HTTP API.
	client *apiClient

	// outputFormat controls the output format for all commands (table
	// or json).
	outputFormat string

	// serverAddr is the nocsimd admin API address (host:port).
	serverAddr string
)

// rootCmd is the top-level cobra command for nocctl.
var rootCmd = &cobra.Command{
	Use:   "nocctl",
	Short: "CLI client for the nocsimd router-engine daemon",
	Long:  "nocctl talks to a running nocsimd daemon's admin HTTP API to inspect routers and inject packets.",
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		client = newAPIClient(&http.Client{Timeout: 10 * time.Second}, "http://"+serverAddr)
		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverAddr, "addr", "localhost:8080",
		"nocsimd admin API address (host:port)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "table",
		"output format: table, json")

	rootCmd.AddCommand(nodeCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(shellCmd())
}

// Execute runs the root command and exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
