package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/priority-technologies/shreenika-voice-core/internal/config"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "voicecore",
		Short: "Real-time voice agent core",
		Long: `voicecore runs the Call Supervisor that drives one outbound or
inbound voice call end to end: carrier ingress, model session, hedge
fillers, and call persistence.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			return nil
		},
	}

	rootCmd.AddCommand(
		serveCmd(),
		simulateCallCmd(),
		configCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// configCmd shows the resolved configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("Model:")
			fmt.Printf("  URL:     %s\n", cfg.Model.URL)
			fmt.Printf("  Name:    %s\n", cfg.Model.Name)
			fmt.Printf("  API Key: %s\n", maskSecret(cfg.Model.APIKey))
			fmt.Println()

			fmt.Println("Database:")
			fmt.Printf("  PostgreSQL: %s\n", maskSecret(cfg.Database.PostgresURL))
			fmt.Println()

			fmt.Println("Server:")
			fmt.Printf("  Host: %s\n", cfg.Server.Host)
			fmt.Printf("  Port: %d\n", cfg.Server.Port)
			fmt.Println()

			fmt.Println("Cache:")
			fmt.Printf("  Default TTL (s):     %d\n", cfg.Cache.DefaultTTLSeconds)
			fmt.Printf("  Breaker failure cap: %d\n", cfg.Cache.BreakerFailureLimit)
			fmt.Println()

			fmt.Println("Carrier:")
			fmt.Printf("  Kind:        %s\n", cfg.Carrier.Kind)
			fmt.Printf("  Listen addr: %s\n", cfg.Carrier.ListenAddr)
			fmt.Printf("  LiveKit URL: %s\n", cfg.Carrier.LiveKitURL)
			fmt.Println()

			fmt.Println("Fillers:")
			fmt.Printf("  Manifest: %s\n", cfg.Fillers.ManifestPath)
			fmt.Println()

			fmt.Println("Environment variables:")
			fmt.Println("  VOICECORE_MODEL_URL, VOICECORE_MODEL_API_KEY, VOICECORE_MODEL_NAME")
			fmt.Println("  VOICECORE_POSTGRES_URL")
			fmt.Println("  VOICECORE_SERVER_HOST, VOICECORE_SERVER_PORT")
			fmt.Println("  VOICECORE_CACHE_TTL_SECONDS, VOICECORE_CACHE_BREAKER_LIMIT")
			fmt.Println("  VOICECORE_CARRIER_KIND, VOICECORE_CARRIER_LISTEN_ADDR")
			fmt.Println("  VOICECORE_LIVEKIT_URL, VOICECORE_LIVEKIT_API_KEY, VOICECORE_LIVEKIT_API_SECRET")
			fmt.Println("  VOICECORE_FILLER_MANIFEST")
			fmt.Println("  VOICECORE_OTLP_ENDPOINT, VOICECORE_ENVIRONMENT, VOICECORE_SERVICE_NAME")

			return nil
		},
	}
}

// versionCmd shows version information.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("voicecore %s\n", version)
			fmt.Printf("  Commit:     %s\n", commit)
			fmt.Printf("  Build Date: %s\n", buildDate)
		},
	}
}
