package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/celestiaorg/zkdispatch/x/dispatcher/client/cli"
	"github.com/celestiaorg/zkdispatch/x/dispatcher/types"
)

const flagForce = "force"

// FileConfig is the layout of config.toml. Keys match the flag names they default.
type FileConfig struct {
	PortPrefix   string `toml:"port-prefix"`
	Scheme       string `toml:"scheme"`
	VerifyingKey string `toml:"vk"`
}

// DefaultFileConfig returns the values written by init.
func DefaultFileConfig() FileConfig {
	return FileConfig{
		PortPrefix: types.DefaultPortPrefix,
		Scheme:     cli.SchemeGroth16,
	}
}

// NewInitCmd writes a default config.toml into the home directory.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config.toml into the home directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			home, err := cmd.Flags().GetString(FlagHome)
			if err != nil {
				return err
			}
			force, err := cmd.Flags().GetBool(flagForce)
			if err != nil {
				return err
			}

			path := filepath.Join(home, "config.toml")
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists, use --%s to overwrite it", path, flagForce)
			}

			bz, err := toml.Marshal(DefaultFileConfig())
			if err != nil {
				return err
			}

			if err := os.MkdirAll(home, 0o700); err != nil {
				return err
			}
			if err := os.WriteFile(path, bz, 0o600); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().Bool(flagForce, false, "Overwrite an existing config.toml")
	return cmd
}
