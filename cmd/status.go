package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/linanwx/nagochat/config"
	"github.com/linanwx/nagochat/internal/health"
	"github.com/linanwx/nagochat/logger"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show config and check that the chat server answers",
	RunE:  runStatus,
}

var (
	statusProbe bool
	statusJSON  bool
)

func init() {
	statusCmd.Flags().BoolVar(&statusProbe, "probe", false, "Dial the server once")
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Print JSON instead of YAML")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	// A broken config file is reported in the snapshot, not as a failure.
	cfg, err := config.Load()
	if err != nil {
		logger.Warn("config load failed, using defaults", "err", err)
		cfg = config.DefaultConfig()
	}
	path, err := config.ConfigPath()
	if err != nil {
		return err
	}

	snap := health.Collect(cmd.Context(), health.Options{
		ConfigPath:   path,
		ServerURL:    cfg.Server.URL,
		Token:        cfg.Server.Token,
		ChatID:       cfg.Chat.ChatID,
		LogFile:      cfg.Logging.File,
		Probe:        statusProbe,
		ProbeTimeout: min(cfg.Server.DialTimeout, 30*time.Second),
	})

	var out []byte
	if statusJSON {
		out, err = json.MarshalIndent(snap, "", "  ")
		out = append(out, '\n')
	} else {
		out, err = yaml.Marshal(snap)
	}
	if err != nil {
		return fmt.Errorf("encode status: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}
