// Package cmd provides the entrypoint for the smartsheet-webhook-app cli.
package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/isometry/smartsheet-webhook-app/internal/config"
	"github.com/isometry/smartsheet-webhook-app/internal/helpers"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	configFilePath string
	logger         = helpers.NewNoopLogger()
)

type boundEnvVar[T argType] struct {
	Name, Description string
	Env, Short        *string
	Hidden            bool
}

// New returns the root command for the smartsheet-webhook-app.
func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "smartsheet-webhook-app",
		Short:        "Authorize Smartsheet webhook callbacks",
		SilenceUsage: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			config.Global.Mode = strings.TrimSpace(config.Global.Mode)
			logger = helpers.NewLogger(os.Stdout, config.Global.Logging.Verbosity, config.Global.Logging.CallerTrace).
				With("mode", config.Global.Mode)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch config.Global.Mode {
			case config.ModeService:
				return runService(cmd)
			case config.ModeLambda:
				return runLambda(cmd)
			default:
				return fmt.Errorf("invalid mode: %s", config.Global.Mode)
			}
		},
	}

	// Root command flags
	configFilePath = lookupConfigPath(os.Args[1:])
	cmd.PersistentFlags().StringVarP(&configFilePath, "config", "c", configFilePath, "[CONFIG_FILE] path to the configuration file")

	// Configuration loading & defaults
	if err := errors.Join(
		config.LoadFromFile(configFilePath),
		config.SetDefaults(),
	); err != nil {
		panic(err)
	}

	// Dynamic flags
	setupDynamicFlags(cmd)

	// Subcommands
	cmd.AddCommand(
		cmdLambda(),
		cmdService(),
	)

	return cmd
}

func setupDynamicFlags(cmd *cobra.Command) {
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(replacer)

	bindEnvMap(cmd, envMapString)
	bindEnvMap(cmd, envMapBool)
	bindEnvMap(cmd, envMapCount)
	bindEnvMap(cmd, envMapDuration)
	bindEnvMap(cmd, svcEnvMapString)
	bindEnvMap(cmd, svcEnvMapDuration)
}

// lookupConfigPath resolves the configuration file before flags are parsed, so that flag defaults
// reflect its content.
func lookupConfigPath(args []string) string {
	path := "config.yaml"
	if v, found := os.LookupEnv("CONFIG_FILE"); found {
		path = v
	}
	for i, arg := range args {
		switch {
		case arg == "--":
			return path
		case (arg == "-c" || arg == "--config") && i+1 < len(args):
			path = args[i+1]
		case strings.HasPrefix(arg, "--config="):
			path = strings.TrimPrefix(arg, "--config=")
		case strings.HasPrefix(arg, "-c="):
			path = strings.TrimPrefix(arg, "-c=")
		}
	}
	return path
}

func logStartup(msg string) {
	logger.Info(msg,
		slog.String("secretStore", config.AWS.SecretStore),
		slog.String("secretPrefix", config.Smartsheet.SecretPrefix),
		slog.Bool("detailedStatusCodes", config.Responses.DetailedStatusCodes),
		slog.Bool("archive", config.Global.S3.Upload.Enabled))
}
