package types

import (
	"strconv"
	"strings"

	abci "github.com/cometbft/cometbft/abci/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	channeltypes "github.com/cosmos/ibc-go/v8/modules/core/04-channel/types"
)

const (
	EventTypeCreateClient       = "CreateClient"
	EventTypeUpdateClient       = "UpdateClient"
	EventTypeUpgradeClient      = "UpgradeClient"
	EventTypeOpenIbcChannel     = "OpenIbcChannel"
	EventTypeConnectIbcChannel  = "ConnectIbcChannel"
	EventTypeCloseIbcChannel    = "CloseIbcChannel"
	EventTypeSendPacket         = "SendPacket"
	EventTypeRecvPacket         = "RecvPacket"
	EventTypeWriteAckPacket     = "WriteAckPacket"
	EventTypeAcknowledgement    = "Acknowledgement"
	EventTypeTimeout            = "Timeout"
	EventTypeWriteTimeoutPacket = "WriteTimeoutPacket"

	AttributeKeyEpoch                 = "epoch"
	AttributeKeyStateRoot             = "state_root"
	AttributeKeyHeight                = "height"
	AttributeKeyTimestamp             = "timestamp"
	AttributeKeyPortAddress           = "port_address"
	AttributeKeyChannelID             = "channel_id"
	AttributeKeyVersion               = "version"
	AttributeKeyOrdering              = "ordering"
	AttributeKeyConnectionHops        = "connection_hops"
	AttributeKeyCounterpartyPortID    = "counterparty_port_id"
	AttributeKeyCounterpartyChannelID = "counterparty_channel_id"
	AttributeKeyPacket                = "packet"
	AttributeKeySequence              = "sequence"
	AttributeKeyTimeoutTimestamp      = "timeout_timestamp"
	AttributeKeyFee                   = "fee"
	AttributeKeyAckPacket             = "ack_packet"
)

// Event is a typed record of the dispatcher's externally observable log.
// Attribute order and the Index flag of each attribute are part of the wire
// contract relayers and indexers depend on.
type Event interface {
	EventType() string
	ToABCIEvent() abci.Event
}

func newEvent(eventType string, attrs ...abci.EventAttribute) abci.Event {
	return abci.Event{Type: eventType, Attributes: attrs}
}

func attr(key, value string, index bool) abci.EventAttribute {
	return abci.EventAttribute{Key: key, Value: value, Index: index}
}

func u64(v uint64) string {
	return strconv.FormatUint(v, 10)
}

// ToSDKEvents converts typed events into sdk events for the EventManager.
func ToSDKEvents(events []Event) sdk.Events {
	out := make(sdk.Events, 0, len(events))
	for _, e := range events {
		out = append(out, sdk.Event(e.ToABCIEvent()))
	}
	return out
}

type EventCreateClient struct {
	ConsensusState ConsensusState
}

func (EventCreateClient) EventType() string { return EventTypeCreateClient }

func (e EventCreateClient) ToABCIEvent() abci.Event {
	return consensusEvent(e.EventType(), e.ConsensusState)
}

type EventUpdateClient struct {
	ConsensusState ConsensusState
}

func (EventUpdateClient) EventType() string { return EventTypeUpdateClient }

func (e EventUpdateClient) ToABCIEvent() abci.Event {
	return consensusEvent(e.EventType(), e.ConsensusState)
}

type EventUpgradeClient struct {
	ConsensusState ConsensusState
}

func (EventUpgradeClient) EventType() string { return EventTypeUpgradeClient }

func (e EventUpgradeClient) ToABCIEvent() abci.Event {
	return consensusEvent(e.EventType(), e.ConsensusState)
}

func consensusEvent(eventType string, cs ConsensusState) abci.Event {
	return newEvent(eventType,
		attr(AttributeKeyEpoch, u64(cs.Epoch), true),
		attr(AttributeKeyStateRoot, cs.StateRoot.String(), false),
		attr(AttributeKeyHeight, u64(cs.Height), true),
		attr(AttributeKeyTimestamp, u64(cs.Timestamp), false),
	)
}

// EventOpenIbcChannel is
// OpenIbcChannel(portAddress indexed, version, ordering, connectionHops, counterpartyPortId, counterpartyChannelId).
type EventOpenIbcChannel struct {
	PortAddress           sdk.AccAddress
	Version               string
	Ordering              channeltypes.Order
	ConnectionHops        []string
	CounterpartyPortID    string
	CounterpartyChannelID ChannelID
}

func (EventOpenIbcChannel) EventType() string { return EventTypeOpenIbcChannel }

func (e EventOpenIbcChannel) ToABCIEvent() abci.Event {
	return newEvent(e.EventType(),
		attr(AttributeKeyPortAddress, e.PortAddress.String(), true),
		attr(AttributeKeyVersion, e.Version, false),
		attr(AttributeKeyOrdering, e.Ordering.String(), false),
		attr(AttributeKeyConnectionHops, strings.Join(e.ConnectionHops, ","), false),
		attr(AttributeKeyCounterpartyPortID, e.CounterpartyPortID, false),
		attr(AttributeKeyCounterpartyChannelID, e.CounterpartyChannelID.String(), false),
	)
}

// EventConnectIbcChannel is ConnectIbcChannel(portAddress indexed, channelId).
type EventConnectIbcChannel struct {
	PortAddress sdk.AccAddress
	ChannelID   ChannelID
}

func (EventConnectIbcChannel) EventType() string { return EventTypeConnectIbcChannel }

func (e EventConnectIbcChannel) ToABCIEvent() abci.Event {
	return newEvent(e.EventType(),
		attr(AttributeKeyPortAddress, e.PortAddress.String(), true),
		attr(AttributeKeyChannelID, e.ChannelID.String(), false),
	)
}

// EventCloseIbcChannel is CloseIbcChannel(portAddress indexed, channelId indexed).
type EventCloseIbcChannel struct {
	PortAddress sdk.AccAddress
	ChannelID   ChannelID
}

func (EventCloseIbcChannel) EventType() string { return EventTypeCloseIbcChannel }

func (e EventCloseIbcChannel) ToABCIEvent() abci.Event {
	return newEvent(e.EventType(),
		attr(AttributeKeyPortAddress, e.PortAddress.String(), true),
		attr(AttributeKeyChannelID, e.ChannelID.String(), true),
	)
}

// EventSendPacket is
// SendPacket(sourcePort indexed, sourceChannelId indexed, payload, sequence, timeoutTimestamp, fee).
type EventSendPacket struct {
	SourcePortAddress sdk.AccAddress
	SourceChannelID   ChannelID
	Payload           []byte
	Sequence          uint64
	TimeoutTimestamp  uint64
	Fee               sdk.Coins
}

func (EventSendPacket) EventType() string { return EventTypeSendPacket }

func (e EventSendPacket) ToABCIEvent() abci.Event {
	return newEvent(e.EventType(),
		attr(AttributeKeyPortAddress, e.SourcePortAddress.String(), true),
		attr(AttributeKeyChannelID, e.SourceChannelID.String(), true),
		attr(AttributeKeyPacket, EncodeHex(e.Payload), false),
		attr(AttributeKeySequence, u64(e.Sequence), false),
		attr(AttributeKeyTimeoutTimestamp, u64(e.TimeoutTimestamp), false),
		attr(AttributeKeyFee, e.Fee.String(), false),
	)
}

// EventRecvPacket is RecvPacket(destPort indexed, destChannelId indexed, sequence).
type EventRecvPacket struct {
	DestPortAddress sdk.AccAddress
	DestChannelID   ChannelID
	Sequence        uint64
}

func (EventRecvPacket) EventType() string { return EventTypeRecvPacket }

func (e EventRecvPacket) ToABCIEvent() abci.Event {
	return newEvent(e.EventType(),
		attr(AttributeKeyPortAddress, e.DestPortAddress.String(), true),
		attr(AttributeKeyChannelID, e.DestChannelID.String(), true),
		attr(AttributeKeySequence, u64(e.Sequence), false),
	)
}

// EventWriteAckPacket is WriteAckPacket(writerPort indexed, writerChannelId indexed, sequence, ackPayload).
type EventWriteAckPacket struct {
	WriterPortAddress sdk.AccAddress
	WriterChannelID   ChannelID
	Sequence          uint64
	AckPacket         []byte
}

func (EventWriteAckPacket) EventType() string { return EventTypeWriteAckPacket }

func (e EventWriteAckPacket) ToABCIEvent() abci.Event {
	return newEvent(e.EventType(),
		attr(AttributeKeyPortAddress, e.WriterPortAddress.String(), true),
		attr(AttributeKeyChannelID, e.WriterChannelID.String(), true),
		attr(AttributeKeySequence, u64(e.Sequence), false),
		attr(AttributeKeyAckPacket, EncodeHex(e.AckPacket), false),
	)
}

// EventAcknowledgement is Acknowledgement(sourcePort indexed, sourceChannelId indexed, sequence).
type EventAcknowledgement struct {
	SourcePortAddress sdk.AccAddress
	SourceChannelID   ChannelID
	Sequence          uint64
}

func (EventAcknowledgement) EventType() string { return EventTypeAcknowledgement }

func (e EventAcknowledgement) ToABCIEvent() abci.Event {
	return newEvent(e.EventType(),
		attr(AttributeKeyPortAddress, e.SourcePortAddress.String(), true),
		attr(AttributeKeyChannelID, e.SourceChannelID.String(), true),
		attr(AttributeKeySequence, u64(e.Sequence), false),
	)
}

// EventTimeout is Timeout(sourcePort indexed, sourceChannelId indexed, sequence indexed).
type EventTimeout struct {
	SourcePortAddress sdk.AccAddress
	SourceChannelID   ChannelID
	Sequence          uint64
}

func (EventTimeout) EventType() string { return EventTypeTimeout }

func (e EventTimeout) ToABCIEvent() abci.Event {
	return newEvent(e.EventType(),
		attr(AttributeKeyPortAddress, e.SourcePortAddress.String(), true),
		attr(AttributeKeyChannelID, e.SourceChannelID.String(), true),
		attr(AttributeKeySequence, u64(e.Sequence), true),
	)
}

// EventWriteTimeoutPacket is WriteTimeoutPacket(writerPort indexed, writerChannelId indexed, sequence, timeoutTimestamp).
type EventWriteTimeoutPacket struct {
	WriterPortAddress sdk.AccAddress
	WriterChannelID   ChannelID
	Sequence          uint64
	TimeoutTimestamp  uint64
}

func (EventWriteTimeoutPacket) EventType() string { return EventTypeWriteTimeoutPacket }

func (e EventWriteTimeoutPacket) ToABCIEvent() abci.Event {
	return newEvent(e.EventType(),
		attr(AttributeKeyPortAddress, e.WriterPortAddress.String(), true),
		attr(AttributeKeyChannelID, e.WriterChannelID.String(), true),
		attr(AttributeKeySequence, u64(e.Sequence), false),
		attr(AttributeKeyTimeoutTimestamp, u64(e.TimeoutTimestamp), false),
	)
}
