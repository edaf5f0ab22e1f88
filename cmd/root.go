package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"stfed/internal/config"
	"stfed/internal/db"
	"stfed/internal/logger"
	"time"

	"github.com/spf13/cobra"
)

var (
	cfg   *config.Config
	debug bool
)

var daemonClient = &http.Client{Timeout: 5 * time.Second}

var rootCmd = &cobra.Command{
	Use:   "stfed",
	Short: "Run commands on Syncthing folder events",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}

		logger.Init(debug)

		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}

		if cmd.Name() == "watch" {
			if err := db.Init(cfg.DBPath); err != nil {
				return err
			}
		}

		return nil
	},
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func daemonURL(path string) string {
	return fmt.Sprintf("http://127.0.0.1:%d%s", cfg.DaemonPort, path)
}

// getJSON decodes the response of a GET on the status API into v.
func getJSON(path string, v any) error {
	resp, err := daemonClient.Get(daemonURL(path))
	if err != nil {
		return fmt.Errorf("daemon not running: %w", err)
	}

	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return fmt.Errorf("daemon returned %s: %s", resp.Status, apiErr.Error)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug mode")
}
