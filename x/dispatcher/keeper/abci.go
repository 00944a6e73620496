package keeper

import (
	"context"

	"github.com/celestiaorg/zkdispatch/x/dispatcher/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// EndBlocker contains the implementation of the appmodule.HasEndBlocker interface.
// It bounds the consensus state history to the retention parameter.
func (k *Keeper) EndBlocker(ctx context.Context) error {
	return k.PruneConsensusStates(ctx)
}

// PruneConsensusStates removes the oldest consensus states until at most
// Params.ConsensusStateRetention remain. The trusted checkpoint is never removed.
func (k *Keeper) PruneConsensusStates(goCtx context.Context) error {
	ctx := sdk.UnwrapSDKContext(goCtx)

	params, err := k.GetParams(ctx)
	if err != nil {
		return err
	}
	if params.ConsensusStateRetention == 0 {
		return nil
	}

	record, err := k.clientRecord(ctx)
	if err != nil || !record.Created {
		return err
	}

	var heights []uint64
	if err := k.consensusStates.Walk(ctx, nil, func(height uint64, _ types.ConsensusState) (bool, error) {
		heights = append(heights, height)
		return false, nil
	}); err != nil {
		return err
	}
	if uint64(len(heights)) <= params.ConsensusStateRetention {
		return nil
	}

	// Heights are walked in ascending order so the oldest entries come first.
	excess := uint64(len(heights)) - params.ConsensusStateRetention
	pruned := uint64(0)
	for _, height := range heights {
		if pruned == excess {
			break
		}
		if height == record.Trusted.Height {
			continue
		}

		if err := k.consensusStates.Remove(ctx, height); err != nil {
			return err
		}
		pruned++
	}

	k.Logger(ctx).Debug("pruned consensus states", "count", pruned, "retained", params.ConsensusStateRetention)
	return nil
}
