package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/celestiaorg/zkdispatch/x/dispatcher/client/cli"
)

const (
	// EnvPrefix is the prefix of environment variables overriding flags,
	// e.g. DISPATCHER_PORT_PREFIX.
	EnvPrefix = "DISPATCHER"

	// FlagHome is the directory searched for config.toml.
	FlagHome = "home"
)

// DefaultHome is the default directory holding the dispatcherctl config.
var DefaultHome = func() string {
	userHome, err := os.UserHomeDir()
	if err != nil {
		return ".dispatcherctl"
	}
	return filepath.Join(userHome, ".dispatcherctl")
}()

// NewRootCmd creates the dispatcherctl root command. Flag values are resolved
// from the command line first, then DISPATCHER_* environment variables, then
// config.toml in the home directory.
func NewRootCmd() *cobra.Command {
	v := viper.New()

	rootCmd := cli.GetQueryCmd()
	rootCmd.Use = "dispatcherctl"
	rootCmd.DisableFlagParsing = false
	rootCmd.SilenceUsage = true
	rootCmd.PersistentFlags().String(FlagHome, DefaultHome, "Directory containing config.toml")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		return bindFlags(cmd, v)
	}
	rootCmd.AddCommand(NewInitCmd())

	return rootCmd
}

// bindFlags loads the config file and environment into v and copies every value
// it holds onto flags the user did not set explicitly.
func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	home := v.GetString(FlagHome)
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(home)
	v.AddConfigPath(filepath.Join(home, "config"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
	}

	var err error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if err != nil || f.Changed || !v.IsSet(f.Name) {
			return
		}
		err = cmd.Flags().Set(f.Name, v.GetString(f.Name))
	})
	return err
}
