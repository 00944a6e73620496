package keeper

import (
	"context"

	errorsmod "cosmossdk.io/errors"
	"github.com/celestiaorg/zkdispatch/x/dispatcher/types"
)

// verifyMembership checks that value is stored at path in the counterparty
// state trusted at proof.Height.
func (k *Keeper) verifyMembership(ctx context.Context, proof types.Proof, path string, value []byte) error {
	cs, err := k.GetConsensusState(ctx, proof.Height)
	if err != nil {
		return err
	}

	if err := k.membershipVerifier.VerifyMembership(cs.StateRoot, path, value, proof.Proof); err != nil {
		k.Logger(ctx).Debug("membership proof rejected", "path", path, "height", proof.Height, "err", err)
		return errorsmod.Wrapf(types.ErrProofInvalid, "membership of %s at height %d: %v", path, proof.Height, err)
	}

	return nil
}

// verifyNonMembership checks that nothing is stored at path in the
// counterparty state trusted at proof.Height.
func (k *Keeper) verifyNonMembership(ctx context.Context, proof types.Proof, path string) error {
	cs, err := k.GetConsensusState(ctx, proof.Height)
	if err != nil {
		return err
	}

	if err := k.membershipVerifier.VerifyNonMembership(cs.StateRoot, path, proof.Proof); err != nil {
		k.Logger(ctx).Debug("non-membership proof rejected", "path", path, "height", proof.Height, "err", err)
		return errorsmod.Wrapf(types.ErrProofInvalid, "non-membership of %s at height %d: %v", path, proof.Height, err)
	}

	return nil
}
