package cmd

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/linanwx/nagochat/config"
)

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Initialize nagochat configuration",
	Long:  `Create the nagochat configuration directory and config file.`,
	RunE:  runOnboard,
}

var onboardForce bool

func init() {
	onboardCmd.Flags().BoolVar(&onboardForce, "force", false, "Overwrite an existing config file")
	rootCmd.AddCommand(onboardCmd)
}

// onboardAnswers holds the wizard's fields.
type onboardAnswers struct {
	ServerURL string
	Token     string
	NewChat   bool
	ChatID    string
}

func runOnboard(_ *cobra.Command, _ []string) error {
	configPath, err := config.ConfigPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(configPath); err == nil && !onboardForce {
		fmt.Println("Config already exists at:", configPath)
		fmt.Println("To reconfigure, edit the file directly or run 'nagochat onboard --force'.")
		return nil
	}

	// --- interactive wizard ---

	answers := onboardAnswers{ServerURL: config.DefaultConfig().Server.URL}

	// Step 1: backend
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Chat server URL").
				Description("WebSocket endpoint of your chat backend, e.g. wss://chat.example.com/ws").
				Validate(validateServerURL).
				Value(&answers.ServerURL),
			huh.NewInput().
				Title("Access token").
				Description("Sent as a bearer token when connecting. Leave empty if the server is open.").
				EchoMode(huh.EchoModePassword).
				Value(&answers.Token),
		),
	).Run()
	if err != nil {
		return err
	}

	// Step 2: default chat
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Start a new chat by default?").
				Description("Choose No to enter an existing chat id, or to pick one later with /chat.").
				Value(&answers.NewChat),
		),
	).Run()
	if err != nil {
		return err
	}

	if !answers.NewChat {
		err = huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Default chat id").
					Description("Leave empty to select a chat after starting.").
					Value(&answers.ChatID),
			),
		).Run()
		if err != nil {
			return err
		}
	}

	// --- apply config ---

	cfg := applyOnboardAnswers(config.DefaultConfig(), answers)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println()
	fmt.Println("nagochat initialized successfully!")
	fmt.Println()
	fmt.Println("  Config:", configPath)
	fmt.Println("  Server:", cfg.Server.URL)
	if cfg.Chat.ChatID != "" {
		fmt.Println("  Chat:", cfg.Chat.ChatID)
	}
	fmt.Println()
	fmt.Println("Run 'nagochat chat' to start.")
	return nil
}

func applyOnboardAnswers(cfg *config.Config, a onboardAnswers) *config.Config {
	cfg.Server.URL = strings.TrimSpace(a.ServerURL)
	cfg.Server.Token = strings.TrimSpace(a.Token)
	if a.NewChat {
		cfg.Chat.ChatID = uuid.NewString()
	} else {
		cfg.Chat.ChatID = strings.TrimSpace(a.ChatID)
	}
	return cfg
}

func validateServerURL(s string) error {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return err
	}
	switch u.Scheme {
	case "ws", "wss":
	default:
		return fmt.Errorf("URL must start with ws:// or wss://")
	}
	if u.Host == "" {
		return fmt.Errorf("URL has no host")
	}
	return nil
}
