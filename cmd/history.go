package cmd

import (
	"fmt"
	"net/url"
	"stfed/internal/model"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var historyN int

var historyCmd = &cobra.Command{
	Use:   "history [run_id]",
	Short: "View recent hook runs, or one run in detail",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			return showRun(args[0])
		}

		var runs []model.HookRun
		if err := getJSON(fmt.Sprintf("/history?n=%d", historyN), &runs); err != nil {
			return err
		}

		if len(runs) == 0 {
			fmt.Println("no history yet")
			return nil
		}

		for _, r := range runs {
			fmt.Printf("%s [%s] #%-3d %-22s %s\n",
				runResult(r),
				r.StartedAt.Format("2006-01-02 15:04:05"),
				r.HookID,
				r.Event,
				runTarget(r),
			)
			fmt.Printf("      run %s\n", r.RunID)
			if r.ErrMsg != "" {
				fmt.Printf("      %s\n", r.ErrMsg)
			}
		}

		return nil
	},
}

func showRun(runID string) error {
	var r model.HookRun
	if err := getJSON("/history/"+url.PathEscape(runID), &r); err != nil {
		return err
	}

	fmt.Printf("Run:      %s %s\n", r.RunID, runResult(r))
	fmt.Printf("Hook:     #%d %s\n", r.HookID, r.Hook)
	fmt.Printf("Event:    %s\n", r.Event)
	fmt.Printf("Target:   %s\n", runTarget(r))
	if r.PID != 0 {
		fmt.Printf("PID:      %d\n", r.PID)
	}
	fmt.Printf("Status:   %s\n", strings.ToLower(string(r.Status)))
	if r.ExitCode != nil {
		fmt.Printf("Exit:     %d\n", *r.ExitCode)
	}
	fmt.Printf("Started:  %s\n", r.StartedAt.Format("2006-01-02 15:04:05"))
	if r.FinishedAt != nil {
		fmt.Printf("Finished: %s (%s)\n",
			r.FinishedAt.Format("2006-01-02 15:04:05"),
			r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	}
	if r.ErrMsg != "" {
		fmt.Printf("Error:    %s\n", r.ErrMsg)
	}

	return nil
}

func runResult(r model.HookRun) string {
	switch {
	case r.Status == model.RunStatusRunning:
		return "…"
	case r.Status == model.RunStatusFailed:
		return "✗"
	case r.ExitCode != nil && *r.ExitCode != 0:
		return fmt.Sprintf("✗ (%d)", *r.ExitCode)
	default:
		return "✓"
	}
}

func runTarget(r model.HookRun) string {
	if r.Path != "" {
		return r.Path
	}

	return r.Folder
}

func init() {
	historyCmd.Flags().IntVar(&historyN, "n", 20, "number of hook runs to show")
	rootCmd.AddCommand(historyCmd)
}
