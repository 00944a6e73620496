package keeper

import (
	"context"

	"cosmossdk.io/collections"
	errorsmod "cosmossdk.io/errors"
	"github.com/celestiaorg/zkdispatch/x/dispatcher/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	channeltypes "github.com/cosmos/ibc-go/v8/modules/core/04-channel/types"
)

// OpenIbcChannel starts a handshake between the calling module and a
// counterparty module. When the counterparty channel id is unknown the caller
// proposes version and the proof attests the counterparty port is bound on
// connectionHops[0]. When it is known the counterparty has already opened its
// end, an empty version adopts the counterparty version and the proof attests
// the counterparty channel end.
func (k *Keeper) OpenIbcChannel(
	ctx context.Context,
	caller sdk.AccAddress,
	version string,
	ordering channeltypes.Order,
	connectionHops []string,
	counterparty types.CounterParty,
	proof types.Proof,
) (types.Channel, []types.Event, error) {
	var channel types.Channel
	events, err := k.execute(ctx, "open_channel", func(ctx sdk.Context) ([]types.Event, error) {
		receiver, err := k.receiver(ctx, caller)
		if err != nil {
			return nil, err
		}

		if err := counterparty.ValidateBasic(); err != nil {
			return nil, err
		}

		params, err := k.GetParams(ctx)
		if err != nil {
			return nil, err
		}
		if err := types.ValidateConnectionHops(connectionHops, params.MaxConnectionHops); err != nil {
			return nil, err
		}
		if err := types.ValidateOrdering(ordering); err != nil {
			return nil, err
		}

		if _, err := k.createdClient(ctx); err != nil {
			return nil, err
		}

		negotiated := version
		if negotiated == "" && !counterparty.ChannelID.IsZero() {
			negotiated = counterparty.Version
		}
		if !types.SupportsVersion(receiver.SupportedVersions(), negotiated) {
			return nil, errorsmod.Wrapf(types.ErrUnsupportedVersion, "version %q", negotiated)
		}

		portID := k.PortID(caller)
		if counterparty.ChannelID.IsZero() {
			if err := k.verifyMembership(ctx, proof, types.PortPath(counterparty.PortID), []byte(connectionHops[0])); err != nil {
				return nil, err
			}
		} else {
			expected := types.ChannelEnd{
				State:              channeltypes.INIT,
				Ordering:           ordering,
				Version:            counterparty.Version,
				CounterpartyPortID: portID,
			}
			path := types.ChannelPath(counterparty.PortID, counterparty.ChannelID)
			if err := k.verifyMembership(ctx, proof, path, types.CommitChannelEnd(expected)); err != nil {
				return nil, err
			}
		}

		seq, err := k.channelSequence.Next(ctx)
		if err != nil {
			return nil, err
		}

		channel = types.Channel{
			PortAddress:    caller,
			PortID:         portID,
			ChannelID:      types.NewChannelID(seq),
			Ordering:       ordering,
			ConnectionHops: connectionHops,
			Counterparty:   counterparty,
			Version:        negotiated,
			State:          channeltypes.INIT,
		}

		if err := receiver.OnOpenIbcChannel(ctx, channel); err != nil {
			return nil, err
		}

		if err := k.initChannel(ctx, channel); err != nil {
			return nil, err
		}

		k.Logger(ctx).Info("opened channel", "port_id", portID, "channel_id", channel.ChannelID.String(), "version", negotiated)
		return []types.Event{types.EventOpenIbcChannel{
			PortAddress:           caller,
			Version:               negotiated,
			Ordering:              ordering,
			ConnectionHops:        connectionHops,
			CounterpartyPortID:    counterparty.PortID,
			CounterpartyChannelID: counterparty.ChannelID,
		}}, nil
	})
	if err != nil {
		return types.Channel{}, nil, err
	}
	return channel, events, nil
}

// ConnectIbcChannel completes the handshake of a channel in INIT. The proof
// attests that the counterparty end is TRYOPEN, or OPEN when the counterparty
// initiated the handshake, and points back at this channel.
func (k *Keeper) ConnectIbcChannel(
	ctx context.Context,
	caller sdk.AccAddress,
	channelID types.ChannelID,
	counterpartyChannelID types.ChannelID,
	counterpartyVersion string,
	proof types.Proof,
) ([]types.Event, error) {
	return k.execute(ctx, "connect_channel", func(ctx sdk.Context) ([]types.Event, error) {
		receiver, err := k.receiver(ctx, caller)
		if err != nil {
			return nil, err
		}

		channel, err := k.GetChannel(ctx, caller, channelID)
		if err != nil {
			return nil, err
		}
		if channel.State != channeltypes.INIT {
			return nil, errorsmod.Wrapf(types.ErrInvalidChannelState, "channel %s is %s, expected %s", channelID, channel.State, channeltypes.INIT)
		}

		if counterpartyChannelID.IsZero() {
			return nil, errorsmod.Wrap(types.ErrInvalidCounterparty, "counterparty channel id cannot be empty")
		}

		expectedState := channeltypes.TRYOPEN
		if !channel.Counterparty.ChannelID.IsZero() {
			if channel.Counterparty.ChannelID != counterpartyChannelID {
				return nil, errorsmod.Wrapf(types.ErrInvalidCounterparty, "expected counterparty channel %s, got %s", channel.Counterparty.ChannelID, counterpartyChannelID)
			}
			expectedState = channeltypes.OPEN
		}

		if counterpartyVersion != channel.Version {
			return nil, errorsmod.Wrapf(types.ErrUnsupportedVersion, "counterparty version %q does not match %q", counterpartyVersion, channel.Version)
		}

		expected := types.ChannelEnd{
			State:                 expectedState,
			Ordering:              channel.Ordering,
			Version:               counterpartyVersion,
			CounterpartyPortID:    channel.PortID,
			CounterpartyChannelID: channel.ChannelID,
		}
		path := types.ChannelPath(channel.Counterparty.PortID, counterpartyChannelID)
		if err := k.verifyMembership(ctx, proof, path, types.CommitChannelEnd(expected)); err != nil {
			return nil, err
		}

		channel.State = channeltypes.OPEN
		channel.Counterparty.ChannelID = counterpartyChannelID
		channel.Counterparty.Version = counterpartyVersion

		if err := receiver.OnConnectIbcChannel(ctx, channel); err != nil {
			return nil, err
		}

		if err := k.channels.Set(ctx, newChannelKey(caller, channelID), channel); err != nil {
			return nil, err
		}

		k.Logger(ctx).Info("connected channel", "port_id", channel.PortID, "channel_id", channelID.String())
		return []types.Event{types.EventConnectIbcChannel{PortAddress: caller, ChannelID: channelID}}, nil
	})
}

// CloseIbcChannel closes an OPEN channel at the request of its bound module.
func (k *Keeper) CloseIbcChannel(ctx context.Context, caller sdk.AccAddress, channelID types.ChannelID) ([]types.Event, error) {
	return k.execute(ctx, "close_channel", func(ctx sdk.Context) ([]types.Event, error) {
		receiver, err := k.receiver(ctx, caller)
		if err != nil {
			return nil, err
		}

		channel, err := k.GetChannel(ctx, caller, channelID)
		if err != nil {
			return nil, err
		}
		if !channel.IsOpen() {
			return nil, errorsmod.Wrapf(types.ErrChannelNotOpen, "channel %s is %s", channelID, channel.State)
		}

		channel.State = channeltypes.CLOSED
		if err := receiver.OnCloseIbcChannel(ctx, channel); err != nil {
			return nil, err
		}

		if err := k.channels.Set(ctx, newChannelKey(caller, channelID), channel); err != nil {
			return nil, err
		}

		k.Logger(ctx).Info("closed channel", "port_id", channel.PortID, "channel_id", channelID.String())
		return []types.Event{types.EventCloseIbcChannel{PortAddress: caller, ChannelID: channelID}}, nil
	})
}

// GetChannel returns the channel identified by its local end.
func (k *Keeper) GetChannel(ctx context.Context, portAddress sdk.AccAddress, channelID types.ChannelID) (types.Channel, error) {
	channel, err := k.channels.Get(ctx, newChannelKey(portAddress, channelID))
	if err != nil {
		if errorsmod.IsOf(err, collections.ErrNotFound) {
			return types.Channel{}, errorsmod.Wrapf(types.ErrChannelNotFound, "channel %s on port %s", channelID, k.PortID(portAddress))
		}
		return types.Channel{}, err
	}
	return channel, nil
}

// GetChannels returns every channel bound to portAddress.
func (k *Keeper) GetChannels(ctx context.Context, portAddress sdk.AccAddress) ([]types.Channel, error) {
	iter, err := k.channels.Iterate(ctx, collections.NewPrefixedPairRange[sdk.AccAddress, []byte](portAddress))
	if err != nil {
		return nil, err
	}
	return iter.Values()
}

// initChannel stores a new channel with its sequence counters starting at 1.
func (k *Keeper) initChannel(ctx context.Context, channel types.Channel) error {
	key := newChannelKey(channel.PortAddress, channel.ChannelID)
	if err := k.channels.Set(ctx, key, channel); err != nil {
		return err
	}
	for _, seq := range []collections.Map[channelKey, uint64]{k.nextSequenceSend, k.nextSequenceRecv, k.nextSequenceAck} {
		if err := seq.Set(ctx, key, 1); err != nil {
			return err
		}
	}
	return nil
}
