package keeper

import (
	"bytes"
	"context"

	"cosmossdk.io/collections"
	errorsmod "cosmossdk.io/errors"
	"github.com/celestiaorg/zkdispatch/x/dispatcher/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
	channeltypes "github.com/cosmos/ibc-go/v8/modules/core/04-channel/types"
)

// SendPacket commits an outgoing packet on an OPEN channel owned by caller and
// escrows fee from caller until the packet is acknowledged or timed out.
func (k *Keeper) SendPacket(
	ctx context.Context,
	caller sdk.AccAddress,
	channelID types.ChannelID,
	payload []byte,
	timeoutTimestamp uint64,
	fee sdk.Coins,
) (uint64, []types.Event, error) {
	var sequence uint64
	events, err := k.execute(ctx, "send_packet", func(ctx sdk.Context) ([]types.Event, error) {
		channel, err := k.channels.Get(ctx, newChannelKey(caller, channelID))
		if err != nil {
			if errorsmod.IsOf(err, collections.ErrNotFound) {
				return nil, errorsmod.Wrapf(types.ErrChannelNotOpen, "channel %s not found on port %s", channelID, k.PortID(caller))
			}
			return nil, err
		}
		if !channel.IsOpen() {
			return nil, errorsmod.Wrapf(types.ErrChannelNotOpen, "channel %s is %s", channelID, channel.State)
		}

		now := uint64(ctx.BlockTime().UnixNano())
		if timeoutTimestamp == 0 || timeoutTimestamp <= now {
			return nil, errorsmod.Wrapf(types.ErrInvalidPacket, "timeout %d must be after block time %d", timeoutTimestamp, now)
		}

		if err := fee.Validate(); err != nil {
			return nil, errorsmod.Wrap(sdkerrors.ErrInvalidCoins, err.Error())
		}

		key := newChannelKey(caller, channelID)
		sequence, err = k.nextSequenceSend.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if err := k.nextSequenceSend.Set(ctx, key, sequence+1); err != nil {
			return nil, err
		}

		if !fee.IsZero() {
			if err := k.bankKeeper.SendCoinsFromAccountToModule(ctx, caller, types.ModuleName, fee); err != nil {
				return nil, errorsmod.Wrap(err, "escrow packet fee")
			}
		}

		packet := types.Packet{
			Src:              channel.Endpoint(),
			Dest:             types.Endpoint{PortID: channel.Counterparty.PortID, ChannelID: channel.Counterparty.ChannelID},
			Sequence:         sequence,
			Data:             payload,
			TimeoutTimestamp: timeoutTimestamp,
		}
		commitment := types.NewPacketCommitment(types.CommitPacket(packet), fee)
		if err := k.packetCommitments.Set(ctx, newPacketKey(caller, channelID, sequence), commitment); err != nil {
			return nil, err
		}

		k.Logger(ctx).Info("sent packet", "port_id", channel.PortID, "channel_id", channelID.String(), "sequence", sequence, "fee", fee.String())
		return []types.Event{types.EventSendPacket{
			SourcePortAddress: caller,
			SourceChannelID:   channelID,
			Payload:           payload,
			Sequence:          sequence,
			TimeoutTimestamp:  timeoutTimestamp,
			Fee:               fee,
		}}, nil
	})
	if err != nil {
		return 0, nil, err
	}
	return sequence, events, nil
}

// RecvPacket delivers a packet committed by the counterparty to the
// destination module and records the acknowledgement it returns.
func (k *Keeper) RecvPacket(ctx context.Context, relayer sdk.AccAddress, packet types.Packet, proof types.Proof) ([]byte, []types.Event, error) {
	var ack []byte
	events, err := k.execute(ctx, "recv_packet", func(ctx sdk.Context) ([]types.Event, error) {
		if err := packet.ValidateBasic(); err != nil {
			return nil, err
		}

		portAddress, channel, err := k.packetChannel(ctx, packet.Dest, packet.Src)
		if err != nil {
			return nil, err
		}
		if !channel.IsOpen() {
			return nil, errorsmod.Wrapf(types.ErrChannelNotOpen, "channel %s is %s", channel.ChannelID, channel.State)
		}

		now := uint64(ctx.BlockTime().UnixNano())
		if packet.HasTimedOut(now) {
			return nil, errorsmod.Wrapf(types.ErrPacketTimedOut, "timeout %d elapsed at %d", packet.TimeoutTimestamp, now)
		}

		key := newChannelKey(portAddress, channel.ChannelID)
		pkey := newPacketKey(portAddress, channel.ChannelID, packet.Sequence)
		received, err := k.packetReceipts.Has(ctx, pkey)
		if err != nil {
			return nil, err
		}
		if received {
			return nil, errorsmod.Wrapf(types.ErrDuplicateOrOutOfOrder, "packet %d already received", packet.Sequence)
		}

		if channel.Ordering == channeltypes.ORDERED {
			next, err := k.nextSequenceRecv.Get(ctx, key)
			if err != nil {
				return nil, err
			}
			if packet.Sequence != next {
				return nil, errorsmod.Wrapf(types.ErrDuplicateOrOutOfOrder, "expected sequence %d, got %d", next, packet.Sequence)
			}
			if err := k.nextSequenceRecv.Set(ctx, key, next+1); err != nil {
				return nil, err
			}
		}

		path := types.PacketCommitmentPath(packet.Src.PortID, packet.Src.ChannelID, packet.Sequence)
		if err := k.verifyMembership(ctx, proof, path, types.CommitPacket(packet)); err != nil {
			return nil, err
		}

		if err := k.packetReceipts.Set(ctx, pkey); err != nil {
			return nil, err
		}

		receiver, err := k.receiver(ctx, portAddress)
		if err != nil {
			return nil, err
		}
		ack, err = receiver.OnRecvPacket(ctx, packet)
		if err != nil {
			return nil, err
		}

		if err := k.packetAcks.Set(ctx, pkey, types.CommitAcknowledgement(ack)); err != nil {
			return nil, err
		}

		k.Logger(ctx).Info("received packet", "relayer", relayer.String(), "channel_id", channel.ChannelID.String(), "sequence", packet.Sequence)
		return []types.Event{
			types.EventRecvPacket{
				DestPortAddress: portAddress,
				DestChannelID:   channel.ChannelID,
				Sequence:        packet.Sequence,
			},
			types.EventWriteAckPacket{
				WriterPortAddress: portAddress,
				WriterChannelID:   channel.ChannelID,
				Sequence:          packet.Sequence,
				AckPacket:         ack,
			},
		}, nil
	})
	if err != nil {
		return nil, nil, err
	}
	return ack, events, nil
}

// AcknowledgePacket resolves an outgoing packet once the counterparty
// acknowledgement is proven and pays the escrowed fee to relayer.
func (k *Keeper) AcknowledgePacket(ctx context.Context, relayer sdk.AccAddress, packet types.Packet, ack []byte, proof types.Proof) ([]types.Event, error) {
	return k.execute(ctx, "acknowledge_packet", func(ctx sdk.Context) ([]types.Event, error) {
		if err := packet.ValidateBasic(); err != nil {
			return nil, err
		}

		portAddress, channel, err := k.packetChannel(ctx, packet.Src, packet.Dest)
		if err != nil {
			return nil, err
		}
		if !channel.IsOpen() {
			return nil, errorsmod.Wrapf(types.ErrChannelNotOpen, "channel %s is %s", channel.ChannelID, channel.State)
		}

		pkey := newPacketKey(portAddress, channel.ChannelID, packet.Sequence)
		commitment, err := k.pendingCommitment(ctx, pkey, packet)
		if err != nil {
			return nil, err
		}

		if channel.Ordering == channeltypes.ORDERED {
			key := newChannelKey(portAddress, channel.ChannelID)
			next, err := k.nextSequenceAck.Get(ctx, key)
			if err != nil {
				return nil, err
			}
			if packet.Sequence != next {
				return nil, errorsmod.Wrapf(types.ErrDuplicateOrOutOfOrder, "expected acknowledgement of sequence %d, got %d", next, packet.Sequence)
			}
			if err := k.nextSequenceAck.Set(ctx, key, next+1); err != nil {
				return nil, err
			}
		}

		path := types.PacketAcknowledgementPath(packet.Dest.PortID, packet.Dest.ChannelID, packet.Sequence)
		if err := k.verifyMembership(ctx, proof, path, types.CommitAcknowledgement(ack)); err != nil {
			return nil, err
		}

		if err := k.resolvePacket(ctx, pkey, commitment, relayer); err != nil {
			return nil, err
		}

		receiver, err := k.receiver(ctx, portAddress)
		if err != nil {
			return nil, err
		}
		if err := receiver.OnAcknowledgementPacket(ctx, packet, ack); err != nil {
			return nil, err
		}

		k.Logger(ctx).Info("acknowledged packet", "relayer", relayer.String(), "channel_id", channel.ChannelID.String(), "sequence", packet.Sequence)
		return []types.Event{types.EventAcknowledgement{
			SourcePortAddress: portAddress,
			SourceChannelID:   channel.ChannelID,
			Sequence:          packet.Sequence,
		}}, nil
	})
}

// TimeoutPacket resolves an outgoing packet the counterparty never received
// before its deadline and pays the escrowed fee to relayer. A timeout on an
// ORDERED channel closes the channel.
func (k *Keeper) TimeoutPacket(ctx context.Context, relayer sdk.AccAddress, packet types.Packet, proof types.Proof) ([]types.Event, error) {
	return k.execute(ctx, "timeout_packet", func(ctx sdk.Context) ([]types.Event, error) {
		if err := packet.ValidateBasic(); err != nil {
			return nil, err
		}

		portAddress, channel, err := k.packetChannel(ctx, packet.Src, packet.Dest)
		if err != nil {
			return nil, err
		}

		pkey := newPacketKey(portAddress, channel.ChannelID, packet.Sequence)
		commitment, err := k.pendingCommitment(ctx, pkey, packet)
		if err != nil {
			return nil, err
		}

		cs, err := k.GetConsensusState(ctx, proof.Height)
		if err != nil {
			return nil, err
		}
		if !packet.HasTimedOut(cs.Timestamp) {
			return nil, errorsmod.Wrapf(types.ErrTimeoutNotReached, "counterparty time %d is before timeout %d", cs.Timestamp, packet.TimeoutTimestamp)
		}

		path := types.PacketReceiptPath(packet.Dest.PortID, packet.Dest.ChannelID, packet.Sequence)
		if err := k.verifyNonMembership(ctx, proof, path); err != nil {
			return nil, err
		}

		if err := k.resolvePacket(ctx, pkey, commitment, relayer); err != nil {
			return nil, err
		}

		receiver, err := k.receiver(ctx, portAddress)
		if err != nil {
			return nil, err
		}

		events := []types.Event{
			types.EventTimeout{
				SourcePortAddress: portAddress,
				SourceChannelID:   channel.ChannelID,
				Sequence:          packet.Sequence,
			},
			types.EventWriteTimeoutPacket{
				WriterPortAddress: portAddress,
				WriterChannelID:   channel.ChannelID,
				Sequence:          packet.Sequence,
				TimeoutTimestamp:  packet.TimeoutTimestamp,
			},
		}

		if channel.Ordering == channeltypes.ORDERED && channel.IsOpen() {
			channel.State = channeltypes.CLOSED
			if err := k.channels.Set(ctx, newChannelKey(portAddress, channel.ChannelID), channel); err != nil {
				return nil, err
			}
			if err := receiver.OnCloseIbcChannel(ctx, channel); err != nil {
				return nil, err
			}
			events = append(events, types.EventCloseIbcChannel{PortAddress: portAddress, ChannelID: channel.ChannelID})
		}

		if err := receiver.OnTimeoutPacket(ctx, packet); err != nil {
			return nil, err
		}

		k.Logger(ctx).Info("timed out packet", "relayer", relayer.String(), "channel_id", channel.ChannelID.String(), "sequence", packet.Sequence)
		return events, nil
	})
}

// GetNextSequenceSend returns the sequence the next packet sent on the channel receives.
func (k *Keeper) GetNextSequenceSend(ctx context.Context, portAddress sdk.AccAddress, channelID types.ChannelID) (uint64, error) {
	return k.channelSequenceValue(ctx, k.nextSequenceSend, portAddress, channelID)
}

// GetNextSequenceRecv returns the next sequence expected on an ORDERED channel.
func (k *Keeper) GetNextSequenceRecv(ctx context.Context, portAddress sdk.AccAddress, channelID types.ChannelID) (uint64, error) {
	return k.channelSequenceValue(ctx, k.nextSequenceRecv, portAddress, channelID)
}

// GetNextSequenceAck returns the next sequence to be acknowledged on an ORDERED channel.
func (k *Keeper) GetNextSequenceAck(ctx context.Context, portAddress sdk.AccAddress, channelID types.ChannelID) (uint64, error) {
	return k.channelSequenceValue(ctx, k.nextSequenceAck, portAddress, channelID)
}

func (k *Keeper) channelSequenceValue(ctx context.Context, m collections.Map[channelKey, uint64], portAddress sdk.AccAddress, channelID types.ChannelID) (uint64, error) {
	seq, err := m.Get(ctx, newChannelKey(portAddress, channelID))
	if err != nil {
		if errorsmod.IsOf(err, collections.ErrNotFound) {
			return 0, errorsmod.Wrapf(types.ErrChannelNotFound, "channel %s on port %s", channelID, k.PortID(portAddress))
		}
		return 0, err
	}
	return seq, nil
}

// GetPacketCommitment returns the commitment of an unresolved outgoing packet.
func (k *Keeper) GetPacketCommitment(ctx context.Context, portAddress sdk.AccAddress, channelID types.ChannelID, sequence uint64) (types.PacketCommitment, bool, error) {
	commitment, err := k.packetCommitments.Get(ctx, newPacketKey(portAddress, channelID, sequence))
	if err != nil {
		if errorsmod.IsOf(err, collections.ErrNotFound) {
			return types.PacketCommitment{}, false, nil
		}
		return types.PacketCommitment{}, false, err
	}
	return commitment, true, nil
}

// HasPacketReceipt reports whether an incoming packet was received.
func (k *Keeper) HasPacketReceipt(ctx context.Context, portAddress sdk.AccAddress, channelID types.ChannelID, sequence uint64) (bool, error) {
	return k.packetReceipts.Has(ctx, newPacketKey(portAddress, channelID, sequence))
}

// GetPacketAcknowledgement returns the acknowledgement commitment written for
// an incoming packet.
func (k *Keeper) GetPacketAcknowledgement(ctx context.Context, portAddress sdk.AccAddress, channelID types.ChannelID, sequence uint64) ([]byte, bool, error) {
	ack, err := k.packetAcks.Get(ctx, newPacketKey(portAddress, channelID, sequence))
	if err != nil {
		if errorsmod.IsOf(err, collections.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return ack, true, nil
}

// packetChannel resolves the local channel a packet travels on and checks the
// remote end matches the channel counterparty.
func (k *Keeper) packetChannel(ctx context.Context, local, remote types.Endpoint) (sdk.AccAddress, types.Channel, error) {
	portAddress, err := types.AddressFromPortID(k.portPrefix, local.PortID)
	if err != nil {
		return nil, types.Channel{}, errorsmod.Wrap(types.ErrInvalidPacket, err.Error())
	}

	channel, err := k.channels.Get(ctx, newChannelKey(portAddress, local.ChannelID))
	if err != nil {
		if errorsmod.IsOf(err, collections.ErrNotFound) {
			return nil, types.Channel{}, errorsmod.Wrapf(types.ErrChannelNotOpen, "channel %s not found on port %s", local.ChannelID, local.PortID)
		}
		return nil, types.Channel{}, err
	}

	if remote.PortID != channel.Counterparty.PortID || remote.ChannelID != channel.Counterparty.ChannelID {
		return nil, types.Channel{}, errorsmod.Wrapf(types.ErrInvalidPacket, "packet counterparty %s/%s does not match channel counterparty %s/%s",
			remote.PortID, remote.ChannelID, channel.Counterparty.PortID, channel.Counterparty.ChannelID)
	}

	return portAddress, channel, nil
}

// pendingCommitment returns the commitment of an unresolved packet. A missing
// commitment for an already allocated sequence means the packet was resolved.
func (k *Keeper) pendingCommitment(ctx context.Context, pkey packetKey, packet types.Packet) (types.PacketCommitment, error) {
	commitment, err := k.packetCommitments.Get(ctx, pkey)
	if err == nil {
		if !bytes.Equal(commitment.Commitment, types.CommitPacket(packet)) {
			return types.PacketCommitment{}, errorsmod.Wrapf(types.ErrInvalidPacket, "packet %d does not match its commitment", packet.Sequence)
		}
		return commitment, nil
	}
	if !errorsmod.IsOf(err, collections.ErrNotFound) {
		return types.PacketCommitment{}, err
	}

	next, err := k.nextSequenceSend.Get(ctx, collections.Join(pkey.K1(), pkey.K2()))
	if err != nil && !errorsmod.IsOf(err, collections.ErrNotFound) {
		return types.PacketCommitment{}, err
	}
	if packet.Sequence < next {
		return types.PacketCommitment{}, errorsmod.Wrapf(types.ErrDuplicateOrOutOfOrder, "packet %d already resolved", packet.Sequence)
	}
	return types.PacketCommitment{}, errorsmod.Wrapf(types.ErrPacketCommitmentNotFound, "packet %d", packet.Sequence)
}

// resolvePacket deletes the commitment and releases its escrowed fee to relayer.
func (k *Keeper) resolvePacket(ctx context.Context, pkey packetKey, commitment types.PacketCommitment, relayer sdk.AccAddress) error {
	if err := k.packetCommitments.Remove(ctx, pkey); err != nil {
		return err
	}

	fee, err := commitment.Coins()
	if err != nil {
		return errorsmod.Wrap(sdkerrors.ErrInvalidCoins, err.Error())
	}
	if fee.IsZero() {
		return nil
	}

	if relayer.Empty() {
		return errorsmod.Wrap(sdkerrors.ErrInvalidAddress, "relayer address cannot be empty")
	}
	if err := k.bankKeeper.SendCoinsFromModuleToAccount(ctx, types.ModuleName, relayer, fee); err != nil {
		return errorsmod.Wrap(err, "release packet fee")
	}
	return nil
}
