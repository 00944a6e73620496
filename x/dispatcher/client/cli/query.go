package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/cosmos/cosmos-sdk/client"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/types/bech32"
	"github.com/cosmos/cosmos-sdk/version"
	"github.com/spf13/cobra"

	"github.com/celestiaorg/zkdispatch/x/dispatcher/types"
)

const (
	// FlagPortPrefix overrides the namespace used to derive port identifiers.
	FlagPortPrefix = "port-prefix"

	// FlagScheme selects the membership proof scheme.
	FlagScheme = "scheme"

	// FlagVerifyingKey is the path of a serialized groth16 verifying key.
	FlagVerifyingKey = "vk"

	// FlagValue is the hex encoded value expected at the proven path.
	FlagValue = "value"
)

// Membership proof schemes.
const (
	SchemeGroth16 = types.MembershipSchemeGroth16
	SchemeMPT     = types.MembershipSchemeMPT
)

// GetQueryCmd returns the offline tooling of the dispatcher module.
func GetQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                        types.ModuleName,
		Short:                      "Dispatcher tooling for port identifiers, proofs and genesis files",
		DisableFlagParsing:         true,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}

	cmd.AddCommand(
		NewPortIDCmd(),
		NewVerifyTransitionCmd(),
		NewVerifyMembershipCmd(),
		NewValidateGenesisCmd(),
	)

	return cmd
}

// NewPortIDCmd derives the port identifier bound to a module address.
func NewPortIDCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "port-id [address]",
		Short: "Derive the port identifier of a module address",
		Long: strings.TrimSpace(`Derive the port identifier of a module address.
The address may be given in bech32 form with any human readable prefix or as 0x prefixed hex.`),
		Example: fmt.Sprintf("%s %s port-id celestia1grvklux2yjsln7ztk6slv538396qatckqhs86z", version.AppName, types.ModuleName),
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := ParseAddress(args[0])
			if err != nil {
				return err
			}

			prefix, err := cmd.Flags().GetString(FlagPortPrefix)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), types.PortIDFromAddress(prefix, addr))
			return nil
		},
	}

	cmd.Flags().String(FlagPortPrefix, types.DefaultPortPrefix, "Namespace prepended to the hex encoded address")
	return cmd
}

// NewValidateGenesisCmd validates a dispatcher genesis file.
func NewValidateGenesisCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "validate-genesis [file]",
		Short:   "Validate a JSON encoded dispatcher genesis state",
		Example: fmt.Sprintf("%s %s validate-genesis dispatcher_genesis.json", version.AppName, types.ModuleName),
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bz, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			var genesisState types.GenesisState
			if err := json.Unmarshal(bz, &genesisState); err != nil {
				return fmt.Errorf("failed to unmarshal genesis state: %w", err)
			}

			if err := genesisState.Validate(); err != nil {
				return fmt.Errorf("invalid genesis state: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s genesis is valid: %d channels, %d modules, %d pending packets\n",
				types.ModuleName, len(genesisState.Channels), len(genesisState.Modules), len(genesisState.Commitments))
			return nil
		},
	}
}

// ParseAddress decodes a bech32 address regardless of its prefix, or a 0x prefixed hex address.
func ParseAddress(s string) (sdk.AccAddress, error) {
	var (
		addr []byte
		err  error
	)
	if strings.HasPrefix(s, "0x") {
		addr, err = types.DecodeHex(s)
	} else {
		_, addr, err = bech32.DecodeAndConvert(s)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid address %s: %w", s, err)
	}

	if err := sdk.VerifyAddressFormat(addr); err != nil {
		return nil, fmt.Errorf("invalid address %s: %w", s, err)
	}
	return addr, nil
}
