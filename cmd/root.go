package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"polyclassify/internal/app"
	"polyclassify/internal/config"
	"polyclassify/internal/store"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var configDirs []string

var rootCmd = &cobra.Command{
	Use:   "polyclassify",
	Short: "Few-shot multilingual text classifier",
	Long: `polyclassify classifies free text into user-defined labels with a hosted LLM,
steered by a handful of labeled examples. Run it one-shot with 'classify' or as an
HTTP API with 'serve'.`,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		// If no subcommand is given, print help.
		cmd.Help()
	},
	// PersistentPreRunE runs before any subcommand's RunE
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "version" || cmd.Name() == "completion" {
			return nil
		}

		var (
			cfg *config.Config
			err error
		)
		if len(configDirs) > 0 {
			cfg, err = config.LoadConfigFrom(configDirs...)
		} else {
			cfg, err = config.LoadConfig()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		setupLogging(cfg)

		appInstance, err := app.NewApp(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize app: %w", err)
		}

		// Store the app instance in the command's context
		ctx := context.WithValue(cmd.Context(), appKey, appInstance)
		cmd.SetContext(ctx)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if appInstance, err := GetAppFromContext(cmd.Context()); err == nil {
			appInstance.Close()
		}
	},
}

func setupLogging(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	log.SetOutput(os.Stderr)
	if cfg.Log.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Define a custom type for the context key to avoid collisions.
type contextKey string

const appKey contextKey = "app"

// Helper function to retrieve the app instance from context
func GetAppFromContext(ctx context.Context) (*app.App, error) {
	if ctx == nil {
		return nil, fmt.Errorf("application instance not found in context")
	}
	appInstance, ok := ctx.Value(appKey).(*app.App)
	if !ok || appInstance == nil {
		// This should not happen if PersistentPreRunE ran successfully
		return nil, fmt.Errorf("application instance not found in context")
	}
	return appInstance, nil
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&configDirs, "config-dir", nil, "Directories to search for config.yaml (default: current directory)")

	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check provider configuration and credentials",
	Long:  `Reports the configured provider, model and credential presence, plus the seeded session. No network calls are made.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to get app instance: %w", err)
		}
		return runDoctor(cmd.OutOrStdout(), appInstance)
	},
}

func runDoctor(w io.Writer, a *app.App) error {
	p := a.Provider
	status := p.Status()
	cfg := a.Config

	prompt := "built-in"
	if cfg.Classification.PromptTemplate != "" {
		prompt = cfg.Classification.PromptTemplate
	}
	retry := "disabled"
	if cfg.Classification.Retry.MaxRetries > 0 {
		retry = fmt.Sprintf("%d retries, %dms base delay", cfg.Classification.Retry.MaxRetries, cfg.Classification.Retry.BaseDelayMs)
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Check", "Value"})
	table.SetBorder(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.Append([]string{"Provider", p.Name()})
	table.Append([]string{"Model", p.ModelName()})
	table.Append([]string{"Credential", colorStatus(status)})
	table.Append([]string{"Prompt", prompt})
	table.Append([]string{"Retry", retry})
	table.Append([]string{"Labels", fmt.Sprintf("%d", len(a.SessionService.Labels()))})
	table.Append([]string{"Examples", fmt.Sprintf("%d", len(a.SessionService.Examples()))})
	table.Render()

	if status == store.ProviderStatusDisabled {
		return fmt.Errorf("no API key configured for provider %s", p.Name())
	}
	fmt.Fprintf(w, "\n%s provider %s is ready.\n", color.GreenString("OK"), p.Name())
	return nil
}

func colorStatus(s store.ProviderStatus) string {
	switch s {
	case store.ProviderStatusActive:
		return color.GreenString("present (client connected)")
	case store.ProviderStatusInactive:
		return color.GreenString("present")
	case store.ProviderStatusDisabled:
		return color.RedString("missing")
	default:
		return color.YellowString(s.String())
	}
}
