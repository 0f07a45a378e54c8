package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/model"
	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/notify"
	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/secrets"
	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/validate"
)

const redacted = "REDACTED"

var initForce bool

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage riskwatch configuration",
	Long: `Manage riskwatch configuration files and settings.

Configuration hierarchy (highest to lowest priority):
1. CLI flags
2. Environment variables (RISKWATCH_*, e.g. RISKWATCH_FEED_PATH)
3. Config file (~/.riskwatch/config.yaml)
4. Defaults

A .env file in the working directory is loaded into the environment first.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long:  `Display the configuration after merging defaults, config file, environment and flags. Literal secrets are redacted; secret references are shown as written.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := decodeConfig()
		if err != nil {
			return err
		}

		if f := viper.ConfigFileUsed(); f != "" {
			fmt.Fprintf(os.Stderr, "Configuration file: %s\n\n", f)
		} else {
			fmt.Fprintf(os.Stderr, "No configuration file found (using defaults and environment)\n\n")
		}

		yamlData, err := yaml.Marshal(redactConfig(cfg))
		if err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(yamlData)
		return err
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := decodeConfig()
		if err != nil {
			return err
		}
		if err := validate.Config(cfg); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration is valid")
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a default configuration file",
	Long:  `Create a configuration file with every option at its default value. The default location is ~/.riskwatch/config.yaml.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, err := initPath(args)
		if err != nil {
			return err
		}

		if _, err := os.Stat(configPath); err == nil && !initForce {
			return fmt.Errorf("config file already exists: %s\nUse 'riskwatch config show' to view it, or pass --force to overwrite", configPath)
		}
		if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}

		body, err := defaultConfigFile()
		if err != nil {
			return err
		}
		if err := os.WriteFile(configPath, body, 0o600); err != nil {
			return fmt.Errorf("write config file: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "✓ Created default configuration: %s\n", configPath)
		fmt.Fprintf(out, "\nTo view the effective configuration:\n  riskwatch config show\n")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)

	configInitCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing file")
}

func initPath(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("find home directory: %w", err)
	}
	return filepath.Join(home, ".riskwatch", "config.yaml"), nil
}

func defaultConfigFile() ([]byte, error) {
	yamlData, err := yaml.Marshal(model.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}

	header := `# riskwatch configuration
#
# Configuration hierarchy (highest to lowest priority):
#   1. CLI flags
#   2. Environment variables (RISKWATCH_*; dots become underscores)
#   3. This config file
#   4. Built-in defaults
#
# Secret fields (notify.email.password, notify.webhook.url, seen.redis.password)
# accept references instead of literals:
#   env:NAME   file:/path/to/secret   vault:secret/data/riskwatch#smtp_password

`
	return append([]byte(header), yamlData...), nil
}

// redactConfig hides literal secrets; references are safe to print
func redactConfig(cfg *model.Config) *model.Config {
	out := *cfg
	out.Notify.Email.Password = redactSecret(cfg.Notify.Email.Password)
	out.Seen.Redis.Password = redactSecret(cfg.Seen.Redis.Password)
	if u := cfg.Notify.Webhook.URL; u != "" && !secrets.IsReference(u) {
		out.Notify.Webhook.URL = notify.RedactURL(u)
	}
	return &out
}

func redactSecret(v string) string {
	if v == "" || secrets.IsReference(v) {
		return v
	}
	return redacted
}
