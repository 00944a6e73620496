package types

import (
	"crypto/sha256"

	errorsmod "cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// Endpoint is one end of a channel as carried by a packet.
type Endpoint struct {
	PortID    string    `json:"port_id"`
	ChannelID ChannelID `json:"channel_id"`
}

// Packet is a payload travelling from Src to Dest. TimeoutTimestamp is in UNIX
// nanoseconds; zero disables the timeout.
type Packet struct {
	Src              Endpoint `json:"src"`
	Dest             Endpoint `json:"dest"`
	Sequence         uint64   `json:"sequence"`
	Data             []byte   `json:"data"`
	TimeoutTimestamp uint64   `json:"timeout_timestamp"`
}

// ValidateBasic performs stateless validation of a packet.
func (p Packet) ValidateBasic() error {
	if p.Sequence == 0 {
		return errorsmod.Wrap(ErrInvalidPacket, "packet sequence cannot be 0")
	}
	if p.Src.PortID == "" || p.Dest.PortID == "" {
		return errorsmod.Wrap(ErrInvalidPacket, "packet port ids cannot be empty")
	}
	if p.Src.ChannelID.IsZero() || p.Dest.ChannelID.IsZero() {
		return errorsmod.Wrap(ErrInvalidPacket, "packet channel ids cannot be empty")
	}
	if p.TimeoutTimestamp == 0 {
		return errorsmod.Wrap(ErrInvalidPacket, "packet timeout timestamp cannot be 0")
	}
	return nil
}

// HasTimedOut reports whether the packet deadline is at or before now (UNIX nanoseconds).
func (p Packet) HasTimedOut(now uint64) bool {
	return now >= p.TimeoutTimestamp
}

// PacketCommitment is the record kept for an outgoing packet until it is
// acknowledged or timed out.
type PacketCommitment struct {
	Commitment []byte `json:"commitment" cbor:"1,keyasint"`
	// Fee holds the escrowed sdk.Coins in their canonical string form.
	Fee string `json:"fee" cbor:"2,keyasint"`
}

// NewPacketCommitment creates a new PacketCommitment instance.
func NewPacketCommitment(commitment []byte, fee sdk.Coins) PacketCommitment {
	return PacketCommitment{Commitment: commitment, Fee: fee.String()}
}

// Coins returns the escrowed fee.
func (pc PacketCommitment) Coins() (sdk.Coins, error) {
	return sdk.ParseCoinsNormalized(pc.Fee)
}

// CommitPacket returns the commitment stored for an outgoing packet:
// sha256(timeout_timestamp || revision_number || revision_height || sha256(data)),
// integers big-endian. Only timestamp timeouts are used so the height fields are zero.
func CommitPacket(packet Packet) []byte {
	buf := sdk.Uint64ToBigEndian(packet.TimeoutTimestamp)
	buf = append(buf, sdk.Uint64ToBigEndian(0)...)
	buf = append(buf, sdk.Uint64ToBigEndian(0)...)

	dataHash := sha256.Sum256(packet.Data)
	buf = append(buf, dataHash[:]...)

	hash := sha256.Sum256(buf)
	return hash[:]
}
