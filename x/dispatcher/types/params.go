package types

import (
	"fmt"
)

const (
	// DefaultEnforceMonotonicUpdates rejects client updates that do not advance the trusted height.
	DefaultEnforceMonotonicUpdates = true

	// DefaultMaxConnectionHops bounds the connection path a channel may traverse.
	DefaultMaxConnectionHops uint32 = 8

	// DefaultConsensusStateRetention keeps the full consensus state history.
	DefaultConsensusStateRetention uint64 = 0
)

// Params defines the dispatcher module parameters.
type Params struct {
	EnforceMonotonicUpdates bool   `json:"enforce_monotonic_updates" cbor:"1,keyasint"`
	MaxConnectionHops       uint32 `json:"max_connection_hops" cbor:"2,keyasint"`
	// ConsensusStateRetention is the number of most recent consensus states kept
	// at the end of each block. Zero disables pruning.
	ConsensusStateRetention uint64 `json:"consensus_state_retention" cbor:"3,keyasint"`
}

// NewParams creates a new Params instance.
func NewParams(enforceMonotonicUpdates bool, maxConnectionHops uint32, consensusStateRetention uint64) Params {
	return Params{
		EnforceMonotonicUpdates: enforceMonotonicUpdates,
		MaxConnectionHops:       maxConnectionHops,
		ConsensusStateRetention: consensusStateRetention,
	}
}

// DefaultParams returns a default set of parameters.
func DefaultParams() Params {
	return NewParams(
		DefaultEnforceMonotonicUpdates,
		DefaultMaxConnectionHops,
		DefaultConsensusStateRetention,
	)
}

// Validate performs basic validation of the parameters.
func (p Params) Validate() error {
	if p.MaxConnectionHops == 0 {
		return fmt.Errorf("max connection hops must be positive")
	}
	return nil
}
