package types

import (
	"crypto/sha256"

	channeltypes "github.com/cosmos/ibc-go/v8/modules/core/04-channel/types"
	host "github.com/cosmos/ibc-go/v8/modules/core/24-host"
)

// Counterparty state is addressed with the ICS-24 host paths.

// PortPath is the path under which the counterparty binds a port.
func PortPath(portID string) string {
	return host.PortPath(portID)
}

// ChannelPath is the path of a counterparty channel end.
func ChannelPath(portID string, channelID ChannelID) string {
	return host.ChannelPath(portID, channelID.String())
}

// PacketCommitmentPath is the path of an outgoing packet commitment.
func PacketCommitmentPath(portID string, channelID ChannelID, sequence uint64) string {
	return host.PacketCommitmentPath(portID, channelID.String(), sequence)
}

// PacketAcknowledgementPath is the path of a written acknowledgement.
func PacketAcknowledgementPath(portID string, channelID ChannelID, sequence uint64) string {
	return host.PacketAcknowledgementPath(portID, channelID.String(), sequence)
}

// PacketReceiptPath is the path of a packet receipt.
func PacketReceiptPath(portID string, channelID ChannelID, sequence uint64) string {
	return host.PacketReceiptPath(portID, channelID.String(), sequence)
}

// CommitAcknowledgement returns the commitment stored for a written acknowledgement.
func CommitAcknowledgement(ack []byte) []byte {
	return channeltypes.CommitAcknowledgement(ack)
}

// ChannelEnd is the view of a channel end that is committed to the
// counterparty's state tree during the handshake.
type ChannelEnd struct {
	State                 channeltypes.State `cbor:"1,keyasint"`
	Ordering              channeltypes.Order `cbor:"2,keyasint"`
	Version               string             `cbor:"3,keyasint"`
	CounterpartyPortID    string             `cbor:"4,keyasint"`
	CounterpartyChannelID ChannelID          `cbor:"5,keyasint"`
}

// CommitChannelEnd returns sha256 of the deterministic CBOR encoding of the channel end.
func CommitChannelEnd(end ChannelEnd) []byte {
	bz, err := cborEncMode.Marshal(end)
	if err != nil {
		// every field is a plain value type, encoding cannot fail
		panic(err)
	}
	hash := sha256.Sum256(bz)
	return hash[:]
}
