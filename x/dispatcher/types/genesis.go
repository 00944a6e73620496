package types

import (
	errorsmod "cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
	channeltypes "github.com/cosmos/ibc-go/v8/modules/core/04-channel/types"
)

// ChannelState is a channel together with its sequence counters.
type ChannelState struct {
	Channel          Channel `json:"channel"`
	NextSequenceSend uint64  `json:"next_sequence_send"`
	NextSequenceRecv uint64  `json:"next_sequence_recv"`
	NextSequenceAck  uint64  `json:"next_sequence_ack"`
}

// PacketID addresses a packet by the local channel end and sequence.
type PacketID struct {
	PortAddress sdk.AccAddress `json:"port_address"`
	ChannelID   ChannelID      `json:"channel_id"`
	Sequence    uint64         `json:"sequence"`
}

// PacketCommitmentState is an unresolved outgoing packet.
type PacketCommitmentState struct {
	PacketID   PacketID         `json:"packet_id"`
	Commitment PacketCommitment `json:"commitment"`
}

// PacketAckState is the acknowledgement commitment written for a received packet.
type PacketAckState struct {
	PacketID   PacketID `json:"packet_id"`
	Commitment []byte   `json:"commitment"`
}

// GenesisState defines the dispatcher module genesis state.
type GenesisState struct {
	Params              Params                  `json:"params"`
	Client              *ClientRecord           `json:"client,omitempty"`
	Modules             []sdk.AccAddress        `json:"modules"`
	ConsensusStates     []ConsensusState        `json:"consensus_states"`
	Channels            []ChannelState          `json:"channels"`
	NextChannelSequence uint64                  `json:"next_channel_sequence"`
	Commitments         []PacketCommitmentState `json:"commitments"`
	Receipts            []PacketID              `json:"receipts"`
	Acknowledgements    []PacketAckState        `json:"acknowledgements"`
}

// DefaultGenesis returns the default module genesis.
func DefaultGenesis() *GenesisState {
	return &GenesisState{
		Params: DefaultParams(),
	}
}

type channelKey struct {
	port    string
	channel ChannelID
}

// Validate performs basic genesis state validation.
func (gs GenesisState) Validate() error {
	if err := gs.Params.Validate(); err != nil {
		return errorsmod.Wrap(sdkerrors.ErrAppConfig, err.Error())
	}

	if gs.Client == nil && len(gs.ConsensusStates) > 0 {
		return errorsmod.Wrap(ErrClientNotCreated, "consensus states defined without a client")
	}

	if gs.Client != nil {
		if !gs.Client.Created {
			return errorsmod.Wrap(sdkerrors.ErrAppConfig, "client record must be marked created")
		}
		if err := gs.Client.Trusted.ValidateBasic(); err != nil {
			return errorsmod.Wrap(err, "trusted consensus state")
		}
	}

	modules := make(map[string]struct{}, len(gs.Modules))
	for _, addr := range gs.Modules {
		if err := sdk.VerifyAddressFormat(addr); err != nil {
			return errorsmod.Wrapf(sdkerrors.ErrInvalidAddress, "module %s: %v", addr, err)
		}
		if _, exists := modules[addr.String()]; exists {
			return errorsmod.Wrapf(ErrModuleAlreadyRegistered, "module %s", addr)
		}
		modules[addr.String()] = struct{}{}
	}

	heights := make(map[uint64]struct{}, len(gs.ConsensusStates))
	for _, cs := range gs.ConsensusStates {
		if err := cs.ValidateBasic(); err != nil {
			return errorsmod.Wrapf(err, "consensus state at height %d", cs.Height)
		}
		if _, exists := heights[cs.Height]; exists {
			return errorsmod.Wrapf(sdkerrors.ErrAppConfig, "duplicate consensus state at height %d", cs.Height)
		}
		heights[cs.Height] = struct{}{}
	}

	channels := make(map[channelKey]struct{}, len(gs.Channels))
	for _, cs := range gs.Channels {
		ch := cs.Channel
		key := channelKey{port: ch.PortAddress.String(), channel: ch.ChannelID}
		if _, exists := channels[key]; exists {
			return errorsmod.Wrapf(sdkerrors.ErrAppConfig, "duplicate channel %s on port %s", ch.ChannelID, ch.PortID)
		}
		channels[key] = struct{}{}

		if ch.PortAddress.Empty() || ch.ChannelID.IsZero() {
			return errorsmod.Wrap(sdkerrors.ErrInvalidRequest, "channel port address and id must be set")
		}
		if err := ValidateOrdering(ch.Ordering); err != nil {
			return err
		}
		if err := ValidateConnectionHops(ch.ConnectionHops, gs.Params.MaxConnectionHops); err != nil {
			return err
		}
		switch ch.State {
		case channeltypes.INIT, channeltypes.OPEN, channeltypes.CLOSED:
		default:
			return errorsmod.Wrapf(ErrInvalidChannelState, "channel %s has state %s", ch.ChannelID, ch.State)
		}
		if cs.NextSequenceSend == 0 || cs.NextSequenceRecv == 0 || cs.NextSequenceAck == 0 {
			return errorsmod.Wrapf(sdkerrors.ErrAppConfig, "channel %s sequences must start at 1", ch.ChannelID)
		}
	}

	if uint64(len(gs.Channels)) > gs.NextChannelSequence {
		return errorsmod.Wrapf(sdkerrors.ErrAppConfig, "next channel sequence %d is below channel count %d", gs.NextChannelSequence, len(gs.Channels))
	}

	for _, c := range gs.Commitments {
		if err := validatePacketID(channels, c.PacketID); err != nil {
			return err
		}
		if len(c.Commitment.Commitment) == 0 {
			return errorsmod.Wrapf(sdkerrors.ErrAppConfig, "empty commitment for sequence %d", c.PacketID.Sequence)
		}
		if _, err := c.Commitment.Coins(); err != nil {
			return errorsmod.Wrapf(sdkerrors.ErrInvalidCoins, "commitment fee: %v", err)
		}
	}
	for _, r := range gs.Receipts {
		if err := validatePacketID(channels, r); err != nil {
			return err
		}
	}
	for _, a := range gs.Acknowledgements {
		if err := validatePacketID(channels, a.PacketID); err != nil {
			return err
		}
		if len(a.Commitment) == 0 {
			return errorsmod.Wrapf(sdkerrors.ErrAppConfig, "empty acknowledgement commitment for sequence %d", a.PacketID.Sequence)
		}
	}

	return nil
}

func validatePacketID(channels map[channelKey]struct{}, id PacketID) error {
	if id.Sequence == 0 {
		return errorsmod.Wrap(sdkerrors.ErrAppConfig, "packet sequence cannot be 0")
	}
	if _, ok := channels[channelKey{port: id.PortAddress.String(), channel: id.ChannelID}]; !ok {
		return errorsmod.Wrapf(ErrChannelNotFound, "packet %d references unknown channel %s", id.Sequence, id.ChannelID)
	}
	return nil
}
