package cmd

import (
	"fmt"
	"stfed/internal/model"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "View daemon status",
	RunE: func(cmd *cobra.Command, args []string) error {
		var snap model.StatusSnapshot
		if err := getJSON("/status", &snap); err != nil {
			return err
		}

		state := "disconnected"
		if snap.Connected {
			state = "connected"
		}

		fmt.Printf("syncthing:   %s (%s)\n", snap.URL, state)
		fmt.Printf("folders:     %d\n", snap.Folders)
		fmt.Printf("last event:  %d\n", snap.LastEventID)
		fmt.Printf("reconnects:  %d\n", snap.Reconnects)
		fmt.Printf("hooks:       %d\n", snap.Hooks)
		if snap.Runs != nil {
			fmt.Printf("runs:        %d total, %d running, %d failed to start, %d non-zero exit\n",
				snap.Runs.Total, snap.Runs.Running, snap.Runs.Failed, snap.Runs.NonZero)
		}

		if len(snap.Running) == 0 {
			fmt.Println("no hook running")
			return nil
		}

		fmt.Printf("\n%-6s %-6s %s\n", "HOOK", "COUNT", "DESCRIPTION")
		for _, r := range snap.Running {
			fmt.Printf("%-6d %-6d %s\n", r.ID, r.Count, r.Description)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
