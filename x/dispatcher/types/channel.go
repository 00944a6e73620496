package types

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"

	errorsmod "cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"
	channeltypes "github.com/cosmos/ibc-go/v8/modules/core/04-channel/types"
	host "github.com/cosmos/ibc-go/v8/modules/core/24-host"
)

// ChannelID is a 32-byte channel identifier. The zero value means the
// identifier is not yet known.
type ChannelID [32]byte

// NewChannelID returns the identifier "channel-{sequence}" right-padded with zero bytes.
func NewChannelID(sequence uint64) ChannelID {
	return ChannelIDFromString(channeltypes.FormatChannelIdentifier(sequence))
}

// ChannelIDFromString copies a channel name of at most 32 bytes into a ChannelID.
func ChannelIDFromString(s string) ChannelID {
	var id ChannelID
	copy(id[:], s)
	return id
}

// IsZero reports whether the identifier is unset.
func (id ChannelID) IsZero() bool {
	return id == ChannelID{}
}

// String returns the identifier with its zero padding removed.
func (id ChannelID) String() string {
	return string(bytes.TrimRight(id[:], "\x00"))
}

// MarshalText implements encoding.TextMarshaler.
func (id ChannelID) MarshalText() ([]byte, error) {
	return []byte(EncodeHex(id[:])), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ChannelID) UnmarshalText(text []byte) error {
	bz, err := DecodeHex(string(text))
	if err != nil {
		return err
	}
	if len(bz) != len(id) {
		return fmt.Errorf("channel id must be %d bytes, got %d", len(id), len(bz))
	}
	copy(id[:], bz)
	return nil
}

// PortIDFromAddress qualifies a module address into a port identifier.
func PortIDFromAddress(prefix string, addr sdk.AccAddress) string {
	return prefix + hex.EncodeToString(addr)
}

// AddressFromPortID extracts the module address from a port identifier
// produced by PortIDFromAddress.
func AddressFromPortID(prefix, portID string) (sdk.AccAddress, error) {
	if !strings.HasPrefix(portID, prefix) {
		return nil, fmt.Errorf("port id %s does not carry prefix %s", portID, prefix)
	}

	addr, err := hex.DecodeString(strings.TrimPrefix(portID, prefix))
	if err != nil {
		return nil, fmt.Errorf("port id %s: %w", portID, err)
	}
	if err := sdk.VerifyAddressFormat(addr); err != nil {
		return nil, err
	}

	return addr, nil
}

// CounterParty identifies the remote end of a channel.
type CounterParty struct {
	PortID    string    `json:"port_id" cbor:"1,keyasint"`
	ChannelID ChannelID `json:"channel_id" cbor:"2,keyasint"`
	Version   string    `json:"version" cbor:"3,keyasint"`
}

// ValidateBasic performs stateless validation of the counterparty.
func (cp CounterParty) ValidateBasic() error {
	if err := host.PortIdentifierValidator(cp.PortID); err != nil {
		return errorsmod.Wrapf(ErrInvalidCounterparty, "invalid port id %q: %v", cp.PortID, err)
	}
	return nil
}

// Channel is a channel end bound to a local module.
type Channel struct {
	PortAddress    sdk.AccAddress     `json:"port_address" cbor:"1,keyasint"`
	PortID         string             `json:"port_id" cbor:"2,keyasint"`
	ChannelID      ChannelID          `json:"channel_id" cbor:"3,keyasint"`
	Ordering       channeltypes.Order `json:"ordering" cbor:"4,keyasint"`
	ConnectionHops []string           `json:"connection_hops" cbor:"5,keyasint"`
	Counterparty   CounterParty       `json:"counterparty" cbor:"6,keyasint"`
	Version        string             `json:"version" cbor:"7,keyasint"`
	State          channeltypes.State `json:"state" cbor:"8,keyasint"`
}

// IsOpen reports whether packets may flow over the channel.
func (c Channel) IsOpen() bool {
	return c.State == channeltypes.OPEN
}

// Endpoint returns the local end of the channel as seen by packets.
func (c Channel) Endpoint() Endpoint {
	return Endpoint{PortID: c.PortID, ChannelID: c.ChannelID}
}

// ValidateOrdering rejects orderings other than ORDERED and UNORDERED.
func ValidateOrdering(ordering channeltypes.Order) error {
	if ordering != channeltypes.ORDERED && ordering != channeltypes.UNORDERED {
		return errorsmod.Wrapf(ErrInvalidChannelOrdering, "got %s", ordering)
	}
	return nil
}

// ValidateConnectionHops requires between one and maxHops non-empty hops.
func ValidateConnectionHops(hops []string, maxHops uint32) error {
	if len(hops) == 0 {
		return errorsmod.Wrap(ErrInvalidConnectionHops, "connection hops cannot be empty")
	}
	if maxHops != 0 && uint32(len(hops)) > maxHops {
		return errorsmod.Wrapf(ErrInvalidConnectionHops, "%d hops exceeds maximum of %d", len(hops), maxHops)
	}
	for i, hop := range hops {
		if strings.TrimSpace(hop) == "" {
			return errorsmod.Wrapf(ErrInvalidConnectionHops, "hop %d is empty", i)
		}
	}
	return nil
}

// SupportsVersion reports whether version is present in supported.
func SupportsVersion(supported []string, version string) bool {
	for _, v := range supported {
		if v == version {
			return true
		}
	}
	return false
}
