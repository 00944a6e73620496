package types

import (
	"fmt"
	"math/big"

	errorsmod "cosmossdk.io/errors"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
)

// Root is a 256-bit state root encoded as a big-endian field element.
type Root [32]byte

// NewRootFromBigInt left-pads the big-endian encoding of i into a Root.
func NewRootFromBigInt(i *big.Int) (Root, error) {
	var r Root
	if i.Sign() < 0 || i.BitLen() > 256 {
		return r, fmt.Errorf("state root %s does not fit in 256 bits", i)
	}
	i.FillBytes(r[:])
	return r, nil
}

// BigInt returns the root as an unsigned integer.
func (r Root) BigInt() *big.Int {
	return new(big.Int).SetBytes(r[:])
}

// IsZero reports whether every byte of the root is zero.
func (r Root) IsZero() bool {
	return r == Root{}
}

func (r Root) String() string {
	return EncodeHex(r[:])
}

// MarshalText implements encoding.TextMarshaler.
func (r Root) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Root) UnmarshalText(text []byte) error {
	bz, err := DecodeHex(string(text))
	if err != nil {
		return err
	}
	if len(bz) != len(r) {
		return fmt.Errorf("state root must be %d bytes, got %d", len(r), len(bz))
	}
	copy(r[:], bz)
	return nil
}

// ConsensusState is a checkpoint of the remote chain's consensus. Values are
// replaced, never mutated, once stored.
type ConsensusState struct {
	Epoch     uint64 `json:"epoch" cbor:"1,keyasint"`
	StateRoot Root   `json:"state_root" cbor:"2,keyasint"`
	Height    uint64 `json:"height" cbor:"3,keyasint"`
	// Timestamp is the remote block time in UNIX nanoseconds.
	Timestamp uint64 `json:"timestamp" cbor:"4,keyasint"`
}

// NewConsensusState creates a new ConsensusState instance.
func NewConsensusState(epoch uint64, stateRoot Root, height, timestamp uint64) ConsensusState {
	return ConsensusState{
		Epoch:     epoch,
		StateRoot: stateRoot,
		Height:    height,
		Timestamp: timestamp,
	}
}

// IsZero reports whether all fields hold their default value. A zero consensus
// state never encodes a meaningful transition.
func (cs ConsensusState) IsZero() bool {
	return cs == ConsensusState{}
}

// ValidateBasic performs stateless validation of a consensus state used to
// create or upgrade a client.
func (cs ConsensusState) ValidateBasic() error {
	if cs.IsZero() {
		return errorsmod.Wrap(sdkerrors.ErrInvalidRequest, "consensus state cannot be empty")
	}
	if cs.StateRoot.IsZero() {
		return errorsmod.Wrap(sdkerrors.ErrInvalidRequest, "state root cannot be empty")
	}
	return nil
}

func (cs ConsensusState) String() string {
	return fmt.Sprintf("ConsensusState{epoch: %d, root: %s, height: %d, timestamp: %d}", cs.Epoch, cs.StateRoot, cs.Height, cs.Timestamp)
}

// ClientRecord is the state of the single light client owned by the dispatcher.
type ClientRecord struct {
	ClientState []byte         `json:"client_state" cbor:"1,keyasint"`
	Trusted     ConsensusState `json:"trusted" cbor:"2,keyasint"`
	Created     bool           `json:"created" cbor:"3,keyasint"`
}
