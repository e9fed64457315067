package main

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/rooty/internal/hooks"
	httpserver "github.com/fyrsmithlabs/rooty/internal/http"
	"github.com/fyrsmithlabs/rooty/internal/services"
)

var (
	hookFilter     string
	sortByPriority bool
)

func init() {
	rootCmd.AddCommand(servicesCmd)
	rootCmd.AddCommand(hooksCmd)
	hooksCmd.Flags().StringVar(&hookFilter, "hook", "", "only list registrations on this hook")
	hooksCmd.Flags().BoolVar(&sortByPriority, "priority", false, "order registrations by priority")
}

var servicesCmd = &cobra.Command{
	Use:   "services",
	Short: "List the configured services and whether they resolve",
	Long: `List every entry of the service map with its container key, whether an
instance is bound and the lookup status (found, not_found, invalid).

Examples:
  rooty services
  rooty services --config config/rooty.yaml`,
	Args: cobra.NoArgs,
	RunE: runServices,
}

var hooksCmd = &cobra.Command{
	Use:   "hooks",
	Short: "Boot the application and list hook registrations",
	Long: `Boot the application and list every action and filter registered through
the hook registrar.

Examples:
  # All registrations in registration order
  rooty hooks

  # Registrations on one hook, lowest priority first
  rooty hooks --hook all_plugins --priority`,
	Args: cobra.NoArgs,
	RunE: runHooks,
}

func runServices(cmd *cobra.Command, args []string) error {
	a, logger, err := loadApp()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if err := a.Register(); err != nil {
		return err
	}
	hub, err := a.Hub()
	if err != nil {
		return err
	}

	view := hub.Services()
	rows := make([][]string, 0, len(view.Entries()))
	for _, e := range view.Entries() {
		res := view.Inspect(e.Name)
		status := res.Status.String()
		if res.Err != nil {
			status += ": " + res.Err.Error()
		}
		rows = append(rows, []string{e.Name, string(e.Class), view.Key(e.Name), strconv.FormatBool(view.HasBound(e.Name)), status})
	}

	fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"NAME", "CLASS", "KEY", "BOUND", "STATUS"}, rows, func(row, col int) (lipgloss.Style, bool) {
		if col != 4 {
			return lipgloss.Style{}, false
		}
		if rows[row][col] == services.Bound.String() {
			return healthyStyle, true
		}
		return errorStyle, true
	}))
	return nil
}

func runHooks(cmd *cobra.Command, args []string) error {
	a, logger, err := loadApp()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if err := a.Boot(context.Background()); err != nil {
		return err
	}

	records := a.Hooks().Records()
	counts := httpserver.CountRecords(records)

	var rows [][]string
	for _, r := range records {
		if hookFilter != "" && r.Hook != hookFilter {
			continue
		}
		rows = append(rows, []string{string(r.Kind), r.Hook, strconv.Itoa(r.Priority), strconv.Itoa(r.AcceptedArgs), r.CallbackID})
	}
	if sortByPriority {
		sort.SliceStable(rows, func(i, j int) bool {
			pi, _ := strconv.Atoi(rows[i][2])
			pj, _ := strconv.Atoi(rows[j][2])
			return pi < pj
		})
	}

	fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"KIND", "HOOK", "PRIORITY", "ARGS", "CALLBACK"}, rows, func(row, col int) (lipgloss.Style, bool) {
		if col == 0 && rows[row][col] == string(hooks.KindFilter) {
			return dimStyle, true
		}
		return lipgloss.Style{}, false
	}))
	fmt.Fprintln(cmd.OutOrStdout(), dimStyle.Render(fmt.Sprintf("%d actions, %d filters on %d hooks", counts.Actions, counts.Filters, len(counts.ByHook))))
	return nil
}
