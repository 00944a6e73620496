package types

import (
	"context"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

var _ Authority = AddressAuthority{}

// AddressAuthority authorizes a single bech32 address, typically the
// governance module account.
type AddressAuthority struct {
	authority string
}

// NewAddressAuthority creates an Authority that admits only the given bech32 address.
func NewAddressAuthority(authority string) AddressAuthority {
	return AddressAuthority{authority: authority}
}

// IsAuthorized implements Authority.
func (a AddressAuthority) IsAuthorized(_ context.Context, caller sdk.AccAddress) bool {
	return !caller.Empty() && caller.String() == a.authority
}

// String returns the authorized address.
func (a AddressAuthority) String() string {
	return a.authority
}
