package cmd

import (
	"fmt"
	"stfed/internal/hook"
	"strings"

	"github.com/spf13/cobra"
)

var hooksCmd = &cobra.Command{
	Use:   "hooks",
	Short: "Check the hooks file and list the configured hooks",
	RunE: func(cmd *cobra.Command, args []string) error {
		hooks, err := readHooks()
		if err != nil {
			return err
		}

		reg := hook.NewRegistry(hooks, 1)
		if reg.Len() == 0 {
			fmt.Printf("no hooks configured in %s\n", cfg.HooksFile)
			return nil
		}

		fmt.Printf("%-4s %-22s %-30s %-12s %-5s %s\n",
			"ID", "EVENT", "FOLDER", "FILTER", "CONC", "COMMAND")
		for _, h := range reg.Hooks() {
			filter := h.Filter
			if filter == "" {
				filter = "-"
			}

			fmt.Printf("%-4d %-22s %-30s %-12s %-5t %s\n",
				h.ID, h.Event, h.Folder, filter, h.AllowConcurrent, strings.Join(h.Command, " "))
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(hooksCmd)
}
