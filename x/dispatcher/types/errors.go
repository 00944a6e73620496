package types

import (
	errorsmod "cosmossdk.io/errors"
)

// Module error codes scoped by ModuleName.
// NOTE: Error code 1 is reserved by cosmos-sdk as internal error / unknown failure

var (
	ErrClientAlreadyCreated     = errorsmod.Register(ModuleName, 2, "client already created")
	ErrClientNotCreated         = errorsmod.Register(ModuleName, 3, "client not created")
	ErrProofVerificationFailed  = errorsmod.Register(ModuleName, 4, "consensus state proof verification failed")
	ErrStaleConsensusState      = errorsmod.Register(ModuleName, 5, "stale consensus state")
	ErrUnsupportedVersion       = errorsmod.Register(ModuleName, 6, "unsupported version")
	ErrChannelNotOpen           = errorsmod.Register(ModuleName, 7, "channel not open")
	ErrDuplicateOrOutOfOrder    = errorsmod.Register(ModuleName, 8, "duplicate or out of order packet")
	ErrPacketTimedOut           = errorsmod.Register(ModuleName, 9, "packet timed out")
	ErrProofInvalid             = errorsmod.Register(ModuleName, 10, "invalid proof")
	ErrTimeoutNotReached        = errorsmod.Register(ModuleName, 11, "packet timeout not reached")
	ErrChannelNotFound          = errorsmod.Register(ModuleName, 12, "channel not found")
	ErrModuleNotRegistered      = errorsmod.Register(ModuleName, 13, "module not registered")
	ErrModuleAlreadyRegistered  = errorsmod.Register(ModuleName, 14, "module already registered")
	ErrInvalidCounterparty      = errorsmod.Register(ModuleName, 15, "invalid counterparty")
	ErrInvalidConnectionHops    = errorsmod.Register(ModuleName, 16, "invalid connection hops")
	ErrInvalidChannelOrdering   = errorsmod.Register(ModuleName, 17, "invalid channel ordering")
	ErrInvalidChannelState      = errorsmod.Register(ModuleName, 18, "invalid channel state")
	ErrConsensusStateNotFound   = errorsmod.Register(ModuleName, 19, "consensus state not found")
	ErrInvalidPacket            = errorsmod.Register(ModuleName, 20, "invalid packet")
	ErrInvalidVerifyingKey      = errorsmod.Register(ModuleName, 21, "invalid verifying key")
	ErrPacketCommitmentNotFound = errorsmod.Register(ModuleName, 22, "packet commitment not found")
)
