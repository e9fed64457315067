package main

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/rooty/internal/monitor"
)

var (
	monitorURL      string
	monitorInterval time.Duration
)

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().StringVar(&monitorURL, "server", "http://localhost:9090", "rooty server URL")
	monitorCmd.Flags().DurationVar(&monitorInterval, "interval", 2*time.Second, "refresh interval")
}

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Live dashboard of a running server",
	Long: `Show hook registrations, dispatch rate, service status and process
metrics of a running rooty server.

Examples:
  rooty monitor
  rooty monitor --server http://127.0.0.1:8080 --interval 5s`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if monitorInterval <= 0 {
			return fmt.Errorf("interval must be positive, got %v", monitorInterval)
		}
		p := tea.NewProgram(monitor.NewModel(monitorURL, monitorInterval), tea.WithAltScreen())
		_, err := p.Run()
		return err
	},
}
