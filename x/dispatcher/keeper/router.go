package keeper

import (
	"context"
	"fmt"

	errorsmod "cosmossdk.io/errors"
	"github.com/celestiaorg/zkdispatch/x/dispatcher/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
)

// Router binds module addresses to the receivers implementing their
// callbacks. Routes are added during app construction, while the set of
// addresses allowed to open channels is governed on-chain by RegisterModule.
type Router struct {
	routes map[string]types.IbcReceiver
	sealed bool
}

// NewRouter returns an empty Router.
func NewRouter() *Router {
	return &Router{routes: make(map[string]types.IbcReceiver)}
}

// AddRoute binds addr to receiver. It panics if the router is sealed or the
// address is already bound.
func (rtr *Router) AddRoute(addr sdk.AccAddress, receiver types.IbcReceiver) *Router {
	if rtr.sealed {
		panic(fmt.Sprintf("router sealed; cannot register %s route", addr))
	}
	if addr.Empty() {
		panic("cannot register route for empty address")
	}
	if receiver == nil {
		panic(fmt.Sprintf("nil receiver for %s", addr))
	}
	if rtr.HasRoute(addr) {
		panic(fmt.Sprintf("route %s has already been registered", addr))
	}

	rtr.routes[addr.String()] = receiver
	return rtr
}

// HasRoute reports whether addr is bound to a receiver.
func (rtr *Router) HasRoute(addr sdk.AccAddress) bool {
	_, ok := rtr.routes[addr.String()]
	return ok
}

// Route returns the receiver bound to addr.
func (rtr *Router) Route(addr sdk.AccAddress) (types.IbcReceiver, bool) {
	receiver, ok := rtr.routes[addr.String()]
	return receiver, ok
}

// Seal prevents further routes from being added.
func (rtr *Router) Seal() {
	rtr.sealed = true
}

// Sealed reports whether the router is sealed.
func (rtr *Router) Sealed() bool {
	return rtr.sealed
}

// RegisterModule authorizes the module at addr to own a port. The caller must
// satisfy the administrative authority and addr must have a route.
func (k *Keeper) RegisterModule(ctx context.Context, caller, addr sdk.AccAddress) error {
	_, err := k.execute(ctx, "register_module", func(ctx sdk.Context) ([]types.Event, error) {
		if !k.authority.IsAuthorized(ctx, caller) {
			return nil, errorsmod.Wrapf(sdkerrors.ErrUnauthorized, "%s cannot register modules", caller)
		}

		if !k.router.HasRoute(addr) {
			return nil, errorsmod.Wrapf(types.ErrModuleNotRegistered, "no receiver bound to %s", addr)
		}

		has, err := k.modules.Has(ctx, addr)
		if err != nil {
			return nil, err
		}
		if has {
			return nil, errorsmod.Wrapf(types.ErrModuleAlreadyRegistered, "module %s", addr)
		}

		if err := k.modules.Set(ctx, addr); err != nil {
			return nil, err
		}

		k.Logger(ctx).Info("registered module", "address", addr.String(), "port_id", k.PortID(addr))
		return nil, nil
	})
	return err
}

// IsModuleRegistered reports whether addr may own a port.
func (k *Keeper) IsModuleRegistered(ctx context.Context, addr sdk.AccAddress) (bool, error) {
	return k.modules.Has(ctx, addr)
}

// receiver returns the callbacks of a registered module.
func (k *Keeper) receiver(ctx context.Context, addr sdk.AccAddress) (types.IbcReceiver, error) {
	has, err := k.modules.Has(ctx, addr)
	if err != nil {
		return nil, err
	}

	receiver, ok := k.router.Route(addr)
	if !has || !ok {
		return nil, errorsmod.Wrapf(types.ErrModuleNotRegistered, "module %s", addr)
	}

	return receiver, nil
}
