package keeper

import (
	"context"

	"cosmossdk.io/collections"
	errorsmod "cosmossdk.io/errors"
	"github.com/celestiaorg/zkdispatch/x/dispatcher/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
)

// CreateClient stores the client state and its initial trusted checkpoint.
// The checkpoint is trusted by authority, so no proof is required.
func (k *Keeper) CreateClient(ctx context.Context, caller sdk.AccAddress, clientState []byte, consensusState types.ConsensusState) ([]types.Event, error) {
	return k.execute(ctx, "create_client", func(ctx sdk.Context) ([]types.Event, error) {
		if !k.authority.IsAuthorized(ctx, caller) {
			return nil, errorsmod.Wrapf(sdkerrors.ErrUnauthorized, "%s cannot create the client", caller)
		}

		record, err := k.clientRecord(ctx)
		if err != nil {
			return nil, err
		}
		if record.Created {
			return nil, types.ErrClientAlreadyCreated
		}

		if err := consensusState.ValidateBasic(); err != nil {
			return nil, err
		}

		if err := k.setTrusted(ctx, clientState, consensusState); err != nil {
			return nil, err
		}

		k.Logger(ctx).Info("created client", "height", consensusState.Height, "epoch", consensusState.Epoch)
		return []types.Event{types.EventCreateClient{ConsensusState: consensusState}}, nil
	})
}

// UpdateClient advances the trusted checkpoint to consensusState once the
// transition from the current checkpoint is proven. Anyone may relay updates.
func (k *Keeper) UpdateClient(ctx context.Context, relayer sdk.AccAddress, consensusState types.ConsensusState, proof types.ZkProof) ([]types.Event, error) {
	return k.execute(ctx, "update_client", func(ctx sdk.Context) ([]types.Event, error) {
		record, err := k.createdClient(ctx)
		if err != nil {
			return nil, err
		}

		if consensusState.IsZero() {
			return nil, errorsmod.Wrap(types.ErrProofVerificationFailed, "empty consensus state")
		}

		params, err := k.GetParams(ctx)
		if err != nil {
			return nil, err
		}

		trusted := record.Trusted
		if params.EnforceMonotonicUpdates {
			if consensusState.Height <= trusted.Height {
				return nil, errorsmod.Wrapf(types.ErrStaleConsensusState, "height %d does not advance trusted height %d", consensusState.Height, trusted.Height)
			}
			if consensusState.Epoch < trusted.Epoch {
				return nil, errorsmod.Wrapf(types.ErrStaleConsensusState, "epoch %d is behind trusted epoch %d", consensusState.Epoch, trusted.Epoch)
			}
		}

		if err := k.transitionVerifier.VerifyTransition(trusted, consensusState, proof); err != nil {
			return nil, errorsmod.Wrap(types.ErrProofVerificationFailed, err.Error())
		}

		if err := k.setTrusted(ctx, record.ClientState, consensusState); err != nil {
			return nil, err
		}

		k.Logger(ctx).Info("updated client", "relayer", relayer.String(), "height", consensusState.Height, "epoch", consensusState.Epoch)
		return []types.Event{types.EventUpdateClient{ConsensusState: consensusState}}, nil
	})
}

// UpgradeClient replaces the client state and trusted checkpoint without a proof.
// The consensus state history of the replaced client is discarded.
func (k *Keeper) UpgradeClient(ctx context.Context, caller sdk.AccAddress, clientState []byte, consensusState types.ConsensusState) ([]types.Event, error) {
	return k.execute(ctx, "upgrade_client", func(ctx sdk.Context) ([]types.Event, error) {
		if !k.authority.IsAuthorized(ctx, caller) {
			return nil, errorsmod.Wrapf(sdkerrors.ErrUnauthorized, "%s cannot upgrade the client", caller)
		}

		if _, err := k.createdClient(ctx); err != nil {
			return nil, err
		}

		if err := consensusState.ValidateBasic(); err != nil {
			return nil, err
		}

		// Checkpoints trusted under the replaced client no longer back proofs.
		if err := k.clearConsensusStates(ctx); err != nil {
			return nil, err
		}

		if err := k.setTrusted(ctx, clientState, consensusState); err != nil {
			return nil, err
		}

		k.Logger(ctx).Info("upgraded client", "height", consensusState.Height, "epoch", consensusState.Epoch)
		return []types.Event{types.EventUpgradeClient{ConsensusState: consensusState}}, nil
	})
}

// GetClientRecord returns the client record. The zero record is returned
// before the client is created.
func (k *Keeper) GetClientRecord(ctx context.Context) (types.ClientRecord, error) {
	return k.clientRecord(ctx)
}

// LatestConsensusState returns the trusted checkpoint.
func (k *Keeper) LatestConsensusState(ctx context.Context) (types.ConsensusState, error) {
	record, err := k.createdClient(ctx)
	if err != nil {
		return types.ConsensusState{}, err
	}
	return record.Trusted, nil
}

// GetConsensusState returns the checkpoint trusted at height.
func (k *Keeper) GetConsensusState(ctx context.Context, height uint64) (types.ConsensusState, error) {
	cs, err := k.consensusStates.Get(ctx, height)
	if err != nil {
		if errorsmod.IsOf(err, collections.ErrNotFound) {
			return types.ConsensusState{}, errorsmod.Wrapf(types.ErrConsensusStateNotFound, "height %d", height)
		}
		return types.ConsensusState{}, err
	}
	return cs, nil
}

func (k *Keeper) clientRecord(ctx context.Context) (types.ClientRecord, error) {
	record, err := k.client.Get(ctx)
	if errorsmod.IsOf(err, collections.ErrNotFound) {
		return types.ClientRecord{}, nil
	}
	return record, err
}

func (k *Keeper) createdClient(ctx context.Context) (types.ClientRecord, error) {
	record, err := k.clientRecord(ctx)
	if err != nil {
		return types.ClientRecord{}, err
	}
	if !record.Created {
		return types.ClientRecord{}, types.ErrClientNotCreated
	}
	return record, nil
}

// setTrusted replaces the client record and records the checkpoint by height
// so later proofs can be checked against it.
func (k *Keeper) setTrusted(ctx context.Context, clientState []byte, consensusState types.ConsensusState) error {
	record := types.ClientRecord{
		ClientState: clientState,
		Trusted:     consensusState,
		Created:     true,
	}
	if err := k.client.Set(ctx, record); err != nil {
		return err
	}
	return k.consensusStates.Set(ctx, consensusState.Height, consensusState)
}

func (k *Keeper) clearConsensusStates(ctx context.Context) error {
	var heights []uint64
	if err := k.consensusStates.Walk(ctx, nil, func(height uint64, _ types.ConsensusState) (bool, error) {
		heights = append(heights, height)
		return false, nil
	}); err != nil {
		return err
	}

	for _, height := range heights {
		if err := k.consensusStates.Remove(ctx, height); err != nil {
			return err
		}
	}
	return nil
}
