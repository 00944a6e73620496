package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/cosmos/cosmos-sdk/version"
	"github.com/spf13/cobra"

	"github.com/celestiaorg/zkdispatch/x/dispatcher/types"
)

// Transition is the JSON document accepted by verify-transition.
type Transition struct {
	Trusted   types.ConsensusState `json:"trusted"`
	Untrusted types.ConsensusState `json:"untrusted"`
	Proof     types.ZkProof        `json:"proof"`
}

// NewVerifyTransitionCmd checks a consensus transition proof offline.
func NewVerifyTransitionCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "verify-transition [verifying-key-file] [transition-file]",
		Short:   "Verify a groth16 consensus transition proof against a verifying key",
		Example: fmt.Sprintf("%s %s verify-transition transition.vk transition.json", version.AppName, types.ModuleName),
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			vkBz, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			verifier, err := types.NewGroth16TransitionVerifier(vkBz)
			if err != nil {
				return err
			}

			bz, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}

			var transition Transition
			if err := json.Unmarshal(bz, &transition); err != nil {
				return fmt.Errorf("failed to unmarshal transition: %w", err)
			}

			if err := verifier.VerifyTransition(transition.Trusted, transition.Untrusted, transition.Proof); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "transition %s -> %s is valid\n", transition.Trusted, transition.Untrusted)
			return nil
		},
	}
}

// NewVerifyMembershipCmd checks a (non-)membership proof offline.
func NewVerifyMembershipCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify-membership [root-hex] [path] [proof-hex]",
		Short: "Verify a membership proof, or a non-membership proof when no value is given",
		Example: fmt.Sprintf("%s %s verify-membership 0x56e8...21 commitments/ports/polyibc.eth.ab/channels/channel-0/sequences/1 0xf8... --scheme mpt --value 0x12ab",
			version.AppName, types.ModuleName),
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			rootBz, err := types.DecodeHex(args[0])
			if err != nil {
				return err
			}
			if len(rootBz) != len(types.Root{}) {
				return fmt.Errorf("root must be %d bytes, got %d", len(types.Root{}), len(rootBz))
			}

			proof, err := types.DecodeHex(args[2])
			if err != nil {
				return err
			}

			verifier, err := membershipVerifier(cmd)
			if err != nil {
				return err
			}

			valueHex, err := cmd.Flags().GetString(FlagValue)
			if err != nil {
				return err
			}

			root, path := types.Root(rootBz), args[1]
			if valueHex == "" {
				if err := verifier.VerifyNonMembership(root, path, proof); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s is absent\n", path)
				return nil
			}

			value, err := types.DecodeHex(valueHex)
			if err != nil {
				return err
			}
			if err := verifier.VerifyMembership(root, path, value, proof); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s holds %s\n", path, types.EncodeHex(value))
			return nil
		},
	}

	cmd.Flags().String(FlagScheme, SchemeGroth16, "Proof scheme: groth16 or mpt")
	cmd.Flags().String(FlagVerifyingKey, "", "Groth16 verifying key file, required by the groth16 scheme")
	cmd.Flags().String(FlagValue, "", "Hex encoded value expected at path")
	return cmd
}

func membershipVerifier(cmd *cobra.Command) (types.MembershipVerifier, error) {
	scheme, err := cmd.Flags().GetString(FlagScheme)
	if err != nil {
		return nil, err
	}

	switch scheme {
	case SchemeMPT:
		return types.MPTMembershipVerifier{}, nil
	case SchemeGroth16:
		vkPath, err := cmd.Flags().GetString(FlagVerifyingKey)
		if err != nil {
			return nil, err
		}
		if vkPath == "" {
			return nil, fmt.Errorf("--%s is required by the %s scheme", FlagVerifyingKey, SchemeGroth16)
		}

		vkBz, err := os.ReadFile(vkPath)
		if err != nil {
			return nil, err
		}
		return types.NewGroth16MembershipVerifier(vkBz)
	default:
		return nil, fmt.Errorf("unknown proof scheme %q", scheme)
	}
}
