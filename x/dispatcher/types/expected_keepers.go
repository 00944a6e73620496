package types

import (
	"context"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

// BankKeeper defines the expected bank keeper interface used to escrow relay fees.
type BankKeeper interface {
	SendCoinsFromAccountToModule(ctx context.Context, senderAddr sdk.AccAddress, recipientModule string, amt sdk.Coins) error
	SendCoinsFromModuleToAccount(ctx context.Context, senderModule string, recipientAddr sdk.AccAddress, amt sdk.Coins) error
}

// Authority decides whether a caller may perform administrative operations:
// creating and upgrading the client and registering modules.
type Authority interface {
	IsAuthorized(ctx context.Context, caller sdk.AccAddress) bool
}

// IbcReceiver is implemented by application modules that own a port. The
// dispatcher invokes these callbacks; a returned error fails the operation.
type IbcReceiver interface {
	// SupportedVersions lists the channel versions the module accepts.
	SupportedVersions() []string

	OnOpenIbcChannel(ctx sdk.Context, channel Channel) error
	OnConnectIbcChannel(ctx sdk.Context, channel Channel) error
	OnCloseIbcChannel(ctx sdk.Context, channel Channel) error

	// OnRecvPacket returns the application-defined acknowledgement payload.
	OnRecvPacket(ctx sdk.Context, packet Packet) ([]byte, error)
	OnAcknowledgementPacket(ctx sdk.Context, packet Packet, ack []byte) error
	OnTimeoutPacket(ctx sdk.Context, packet Packet) error
}
