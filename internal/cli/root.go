package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/logging"
	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/model"
	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/riskerr"
	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/validate"
)

// Version is set at build time with -ldflags "-X ...cli.Version=..."
var Version = "0.3.0"

const envPrefix = "RISKWATCH"

var (
	cfgFile  string
	envFile  string
	verbose  bool
	logLevel string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "riskwatch",
	Short: "riskwatch - high-risk message alerting for classified Telegram exports",
	Long: `riskwatch watches the classified message table produced by the upstream
clustering and risk-labelling pipeline.

Every message labelled "high" is announced exactly once: it is sent to the
configured notification channels (email, chat webhook, Kafka) and appended
to a durable alerts feed. Identifiers already in the feed are never
announced again, across restarts.

riskwatch does not classify messages; it only reacts to labels.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "riskwatch v%s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.riskwatch/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before configuration (ignored when absent)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig loads the dotenv file, registers defaults and reads the config file
func initConfig() {
	if err := loadEnvFile(envFile); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	if err := setDefaults(viper.GetViper(), model.DefaultConfig()); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: register defaults: %v\n", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".riskwatch"))
		}
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// RISKWATCH_NOTIFY_EMAIL_HOST overrides notify.email.host
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(newKeyReplacer())
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if verbose {
			fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
		}
	} else if cfgFile != "" {
		fmt.Fprintf(os.Stderr, "Warning: read config %s: %v\n", cfgFile, err)
	}
}

// newKeyReplacer maps config keys to environment variable suffixes
func newKeyReplacer() *strings.Replacer {
	return strings.NewReplacer(".", "_")
}

// loadEnvFile loads path into the environment without overriding variables
// that are already set. A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// setDefaults registers every leaf of cfg as a viper default so that
// environment overrides apply to keys absent from the config file.
func setDefaults(v *viper.Viper, cfg *model.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return err
	}

	leaves := make(map[string]any)
	flatten("", tree, leaves)
	keys := make([]string, 0, len(leaves))
	for k := range leaves {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v.SetDefault(k, leaves[k])
	}
	return nil
}

func flatten(prefix string, node map[string]any, out map[string]any) {
	for k, val := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if child, ok := val.(map[string]any); ok {
			flatten(key, child, out)
			continue
		}
		out[key] = val
	}
}

// decodeConfig merges defaults, config file, environment and bound flags
func decodeConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, riskerr.NewConfigError("", err)
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// loadConfig decodes the effective configuration and validates it
func loadConfig() (*model.Config, error) {
	cfg, err := decodeConfig()
	if err != nil {
		return nil, err
	}
	if err := validate.Config(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the process logger from cfg
func newLogger(cfg *model.Config) (*zap.Logger, error) {
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, riskerr.NewConfigError("log.level", err)
	}
	return logger, nil
}
