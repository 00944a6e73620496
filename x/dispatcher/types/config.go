package types

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cosmos/cosmos-sdk/client/flags"
	servertypes "github.com/cosmos/cosmos-sdk/server/types"
	"github.com/spf13/cast"
)

// App option keys read from the [dispatcher] section of app.toml.
const (
	OptionPortPrefix        = "dispatcher.port-prefix"
	OptionMembershipScheme  = "dispatcher.membership-scheme"
	OptionTransitionKeyFile = "dispatcher.transition-key-file"
	OptionMembershipKeyFile = "dispatcher.membership-key-file"
)

// Membership proof schemes.
const (
	MembershipSchemeGroth16 = "groth16"
	MembershipSchemeMPT     = "mpt"
	DefaultMembershipScheme = MembershipSchemeGroth16
)

const (
	defaultTransitionKeyFile = "config/dispatcher_transition.vk"
	defaultMembershipKeyFile = "config/dispatcher_membership.vk"
)

// Config is the node-local configuration used to construct the keeper.
type Config struct {
	// Home is the node home directory; relative key files are resolved against it.
	Home              string
	PortPrefix        string
	MembershipScheme  string
	TransitionKeyFile string
	MembershipKeyFile string
}

// DefaultConfig returns the configuration used when app.toml has no [dispatcher] section.
func DefaultConfig(home string) Config {
	return Config{
		Home:              home,
		PortPrefix:        DefaultPortPrefix,
		MembershipScheme:  DefaultMembershipScheme,
		TransitionKeyFile: defaultTransitionKeyFile,
		MembershipKeyFile: defaultMembershipKeyFile,
	}
}

// ConfigFromAppOptions reads the dispatcher configuration from the node's app options,
// keeping the default for every unset key.
func ConfigFromAppOptions(appOpts servertypes.AppOptions) Config {
	cfg := DefaultConfig(cast.ToString(appOpts.Get(flags.FlagHome)))

	if v := cast.ToString(appOpts.Get(OptionPortPrefix)); v != "" {
		cfg.PortPrefix = v
	}
	if v := cast.ToString(appOpts.Get(OptionMembershipScheme)); v != "" {
		cfg.MembershipScheme = v
	}
	if v := cast.ToString(appOpts.Get(OptionTransitionKeyFile)); v != "" {
		cfg.TransitionKeyFile = v
	}
	if v := cast.ToString(appOpts.Get(OptionMembershipKeyFile)); v != "" {
		cfg.MembershipKeyFile = v
	}

	return cfg
}

// Validate checks the configuration without touching the filesystem.
func (c Config) Validate() error {
	if c.PortPrefix == "" {
		return fmt.Errorf("port prefix cannot be empty")
	}
	if c.TransitionKeyFile == "" {
		return fmt.Errorf("transition verifying key file cannot be empty")
	}

	switch c.MembershipScheme {
	case MembershipSchemeMPT:
	case MembershipSchemeGroth16:
		if c.MembershipKeyFile == "" {
			return fmt.Errorf("membership verifying key file is required by the %s scheme", MembershipSchemeGroth16)
		}
	default:
		return fmt.Errorf("unknown membership scheme %q", c.MembershipScheme)
	}
	return nil
}

// Verifiers loads the verifying keys named by the configuration.
func (c Config) Verifiers() (ProofVerifier, MembershipVerifier, error) {
	if err := c.Validate(); err != nil {
		return nil, nil, err
	}

	vkBz, err := os.ReadFile(c.resolve(c.TransitionKeyFile))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read transition verifying key: %w", err)
	}
	transition, err := NewGroth16TransitionVerifier(vkBz)
	if err != nil {
		return nil, nil, err
	}

	if c.MembershipScheme == MembershipSchemeMPT {
		return transition, MPTMembershipVerifier{}, nil
	}

	vkBz, err = os.ReadFile(c.resolve(c.MembershipKeyFile))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read membership verifying key: %w", err)
	}
	membership, err := NewGroth16MembershipVerifier(vkBz)
	if err != nil {
		return nil, nil, err
	}

	return transition, membership, nil
}

func (c Config) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Home, path)
}
