package keeper

import (
	"context"

	"github.com/celestiaorg/zkdispatch/x/dispatcher/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// InitGenesis initialises the module genesis state.
func (k *Keeper) InitGenesis(ctx context.Context, gs *types.GenesisState) error {
	if err := k.SetParams(ctx, gs.Params); err != nil {
		return err
	}

	if gs.Client != nil {
		if err := k.client.Set(ctx, *gs.Client); err != nil {
			return err
		}
		if err := k.consensusStates.Set(ctx, gs.Client.Trusted.Height, gs.Client.Trusted); err != nil {
			return err
		}
	}
	for _, cs := range gs.ConsensusStates {
		if err := k.consensusStates.Set(ctx, cs.Height, cs); err != nil {
			return err
		}
	}

	for _, addr := range gs.Modules {
		if err := k.modules.Set(ctx, addr); err != nil {
			return err
		}
	}

	for _, cs := range gs.Channels {
		key := newChannelKey(cs.Channel.PortAddress, cs.Channel.ChannelID)
		if err := k.channels.Set(ctx, key, cs.Channel); err != nil {
			return err
		}
		if err := k.nextSequenceSend.Set(ctx, key, cs.NextSequenceSend); err != nil {
			return err
		}
		if err := k.nextSequenceRecv.Set(ctx, key, cs.NextSequenceRecv); err != nil {
			return err
		}
		if err := k.nextSequenceAck.Set(ctx, key, cs.NextSequenceAck); err != nil {
			return err
		}
	}
	if err := k.channelSequence.Set(ctx, gs.NextChannelSequence); err != nil {
		return err
	}

	for _, c := range gs.Commitments {
		if err := k.packetCommitments.Set(ctx, packetIDKey(c.PacketID), c.Commitment); err != nil {
			return err
		}
	}
	for _, id := range gs.Receipts {
		if err := k.packetReceipts.Set(ctx, packetIDKey(id)); err != nil {
			return err
		}
	}
	for _, a := range gs.Acknowledgements {
		if err := k.packetAcks.Set(ctx, packetIDKey(a.PacketID), a.Commitment); err != nil {
			return err
		}
	}

	return nil
}

// ExportGenesis outputs the modules state for genesis exports.
func (k *Keeper) ExportGenesis(ctx context.Context) (*types.GenesisState, error) {
	params, err := k.GetParams(ctx)
	if err != nil {
		return nil, err
	}

	gs := &types.GenesisState{Params: params}

	record, err := k.clientRecord(ctx)
	if err != nil {
		return nil, err
	}
	if record.Created {
		gs.Client = &record
	}

	if err := k.consensusStates.Walk(ctx, nil, func(_ uint64, cs types.ConsensusState) (bool, error) {
		gs.ConsensusStates = append(gs.ConsensusStates, cs)
		return false, nil
	}); err != nil {
		return nil, err
	}

	if err := k.modules.Walk(ctx, nil, func(addr sdk.AccAddress) (bool, error) {
		gs.Modules = append(gs.Modules, addr)
		return false, nil
	}); err != nil {
		return nil, err
	}

	if err := k.channels.Walk(ctx, nil, func(key channelKey, channel types.Channel) (bool, error) {
		var (
			state = types.ChannelState{Channel: channel}
			err   error
		)
		if state.NextSequenceSend, err = k.nextSequenceSend.Get(ctx, key); err != nil {
			return true, err
		}
		if state.NextSequenceRecv, err = k.nextSequenceRecv.Get(ctx, key); err != nil {
			return true, err
		}
		if state.NextSequenceAck, err = k.nextSequenceAck.Get(ctx, key); err != nil {
			return true, err
		}
		gs.Channels = append(gs.Channels, state)
		return false, nil
	}); err != nil {
		return nil, err
	}

	if gs.NextChannelSequence, err = k.channelSequence.Peek(ctx); err != nil {
		return nil, err
	}

	if err := k.packetCommitments.Walk(ctx, nil, func(key packetKey, commitment types.PacketCommitment) (bool, error) {
		gs.Commitments = append(gs.Commitments, types.PacketCommitmentState{PacketID: packetKeyID(key), Commitment: commitment})
		return false, nil
	}); err != nil {
		return nil, err
	}

	if err := k.packetReceipts.Walk(ctx, nil, func(key packetKey) (bool, error) {
		gs.Receipts = append(gs.Receipts, packetKeyID(key))
		return false, nil
	}); err != nil {
		return nil, err
	}

	if err := k.packetAcks.Walk(ctx, nil, func(key packetKey, commitment []byte) (bool, error) {
		gs.Acknowledgements = append(gs.Acknowledgements, types.PacketAckState{PacketID: packetKeyID(key), Commitment: commitment})
		return false, nil
	}); err != nil {
		return nil, err
	}

	return gs, nil
}

func packetIDKey(id types.PacketID) packetKey {
	return newPacketKey(id.PortAddress, id.ChannelID, id.Sequence)
}

func packetKeyID(key packetKey) types.PacketID {
	var channelID types.ChannelID
	copy(channelID[:], key.K2())
	return types.PacketID{PortAddress: key.K1(), ChannelID: channelID, Sequence: key.K3()}
}
