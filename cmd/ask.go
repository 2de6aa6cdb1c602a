package cmd

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/aquasense/aquasense/internal/config"
	"github.com/aquasense/aquasense/internal/log"
	"github.com/aquasense/aquasense/internal/session"
)

var (
	askSessionID string
	askUserID    string
	askLatitude  float64
	askLongitude float64
	askHasCoords bool
)

var askCmd = &cobra.Command{
	Use:   "ask <message>",
	Short: "Run a single conversational turn and print the reply",
	Long: `Runs one turn against the configured stack and prints the reply,
executed steps and any degraded capabilities.

Examples:
  aquasense ask "查询海水pH的资料"
  aquasense ask --lat 36.05 --lon 120.38 "predict the trend and write a report"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		askHasCoords = cmd.Flags().Changed("lat") && cmd.Flags().Changed("lon")
		return runAsk(cmd.Context(), args[0])
	},
}

func init() {
	askCmd.Flags().StringVar(&askSessionID, "session", "", "session ID (new session when empty)")
	askCmd.Flags().StringVar(&askUserID, "user", "cli", "user ID recorded on the session")
	askCmd.Flags().Float64Var(&askLatitude, "lat", 0, "latitude of the monitoring location")
	askCmd.Flags().Float64Var(&askLongitude, "lon", 0, "longitude of the monitoring location")
	rootCmd.AddCommand(askCmd)
}

func runAsk(ctx context.Context, message string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err = cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	logger := log.New(log.Config{Level: cfg.SlogLevel(), JSON: cfg.LogJSON})

	a, err := setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer a.Close()

	sessionID := askSessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	var loc *session.Location
	if askHasCoords {
		loc = &session.Location{Latitude: askLatitude, Longitude: askLongitude}
	}

	resp := a.Orchestrator.HandleTurn(ctx, sessionID, askUserID, message, loc)

	fmt.Println(resp.Reply)
	if len(resp.Steps) > 0 {
		fmt.Println()
		for _, step := range resp.Steps {
			fmt.Printf("  - %s\n", step)
		}
	}
	if len(resp.Degraded) > 0 {
		fmt.Printf("\nDegraded: %v\n", resp.Degraded)
	}
	if resp.Confidence != nil {
		fmt.Printf("Confidence: %.2f\n", *resp.Confidence)
	}
	fmt.Printf("\nSession: %s\n", resp.SessionID)
	return nil
}
