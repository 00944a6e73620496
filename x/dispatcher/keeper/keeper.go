package keeper

import (
	"context"
	"time"

	"cosmossdk.io/collections"
	collcodec "cosmossdk.io/collections/codec"
	corestore "cosmossdk.io/core/store"
	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/log"
	"github.com/celestiaorg/zkdispatch/x/dispatcher/types"
	"github.com/cosmos/cosmos-sdk/telemetry"
	sdk "github.com/cosmos/cosmos-sdk/types"
	metrics "github.com/hashicorp/go-metrics"
)

type (
	channelKey = collections.Pair[sdk.AccAddress, []byte]
	packetKey  = collections.Triple[sdk.AccAddress, []byte, uint64]
)

func newChannelKey(portAddress sdk.AccAddress, channelID types.ChannelID) channelKey {
	return collections.Join(portAddress, channelID[:])
}

func newPacketKey(portAddress sdk.AccAddress, channelID types.ChannelID, sequence uint64) packetKey {
	return collections.Join3(portAddress, channelID[:], sequence)
}

// Keeper is the dispatcher: it owns the light client, the channels bound to
// local modules and the packet bookkeeping of those channels.
type Keeper struct {
	params          collections.Item[types.Params]
	client          collections.Item[types.ClientRecord]
	consensusStates collections.Map[uint64, types.ConsensusState]

	modules          collections.KeySet[sdk.AccAddress]
	channels         collections.Map[channelKey, types.Channel]
	channelSequence  collections.Sequence
	nextSequenceSend collections.Map[channelKey, uint64]
	nextSequenceRecv collections.Map[channelKey, uint64]
	nextSequenceAck  collections.Map[channelKey, uint64]

	packetCommitments collections.Map[packetKey, types.PacketCommitment]
	packetReceipts    collections.KeySet[packetKey]
	packetAcks        collections.Map[packetKey, []byte]

	schema collections.Schema

	router             *Router
	bankKeeper         types.BankKeeper
	authority          types.Authority
	transitionVerifier types.ProofVerifier
	membershipVerifier types.MembershipVerifier
	portPrefix         string
}

// NewKeeper creates and returns a new dispatcher module Keeper.
func NewKeeper(
	storeService corestore.KVStoreService,
	bankKeeper types.BankKeeper,
	authority types.Authority,
	transitionVerifier types.ProofVerifier,
	membershipVerifier types.MembershipVerifier,
	portPrefix string,
) *Keeper {
	if portPrefix == "" {
		portPrefix = types.DefaultPortPrefix
	}

	sb := collections.NewSchemaBuilder(storeService)

	k := &Keeper{
		params:          collections.NewItem(sb, types.ParamsKey, "params", types.CBORValue[types.Params]()),
		client:          collections.NewItem(sb, types.ClientKey, "client", types.CBORValue[types.ClientRecord]()),
		consensusStates: collections.NewMap(sb, types.ConsensusStatesKeyPrefix, "consensus_states", collections.Uint64Key, types.CBORValue[types.ConsensusState]()),

		modules:          collections.NewKeySet(sb, types.ModulesKeyPrefix, "modules", sdk.AccAddressKey),
		channels:         collections.NewMap(sb, types.ChannelsKeyPrefix, "channels", collections.PairKeyCodec(sdk.AccAddressKey, collections.BytesKey), types.CBORValue[types.Channel]()),
		channelSequence:  collections.NewSequence(sb, types.ChannelSequenceKey, "channel_sequence"),
		nextSequenceSend: collections.NewMap(sb, types.NextSequenceSendKeyPrefix, "next_sequence_send", collections.PairKeyCodec(sdk.AccAddressKey, collections.BytesKey), collections.Uint64Value),
		nextSequenceRecv: collections.NewMap(sb, types.NextSequenceRecvKeyPrefix, "next_sequence_recv", collections.PairKeyCodec(sdk.AccAddressKey, collections.BytesKey), collections.Uint64Value),
		nextSequenceAck:  collections.NewMap(sb, types.NextSequenceAckKeyPrefix, "next_sequence_ack", collections.PairKeyCodec(sdk.AccAddressKey, collections.BytesKey), collections.Uint64Value),

		packetCommitments: collections.NewMap(sb, types.PacketCommitmentsKeyPrefix, "packet_commitments", packetKeyCodec(), types.CBORValue[types.PacketCommitment]()),
		packetReceipts:    collections.NewKeySet(sb, types.PacketReceiptsKeyPrefix, "packet_receipts", packetKeyCodec()),
		packetAcks:        collections.NewMap(sb, types.PacketAcksKeyPrefix, "packet_acks", packetKeyCodec(), collections.BytesValue),

		router:             NewRouter(),
		bankKeeper:         bankKeeper,
		authority:          authority,
		transitionVerifier: transitionVerifier,
		membershipVerifier: membershipVerifier,
		portPrefix:         portPrefix,
	}

	schema, err := sb.Build()
	if err != nil {
		panic(err)
	}
	k.schema = schema

	return k
}

// NewKeeperFromConfig loads the verifiers named by cfg and creates a Keeper with
// its port prefix.
func NewKeeperFromConfig(
	storeService corestore.KVStoreService,
	bankKeeper types.BankKeeper,
	authority types.Authority,
	cfg types.Config,
) (*Keeper, error) {
	transitionVerifier, membershipVerifier, err := cfg.Verifiers()
	if err != nil {
		return nil, err
	}

	return NewKeeper(storeService, bankKeeper, authority, transitionVerifier, membershipVerifier, cfg.PortPrefix), nil
}

func packetKeyCodec() collcodec.KeyCodec[packetKey] {
	return collections.TripleKeyCodec(sdk.AccAddressKey, collections.BytesKey, collections.Uint64Key)
}

// Logger returns the module logger extracted using the sdk context.
func (k *Keeper) Logger(ctx context.Context) log.Logger {
	return sdk.UnwrapSDKContext(ctx).Logger().With("module", "x/"+types.ModuleName)
}

// Router returns the router binding module addresses to their receivers.
func (k *Keeper) Router() *Router {
	return k.router
}

// PortPrefix returns the prefix used to derive port identifiers.
func (k *Keeper) PortPrefix() string {
	return k.portPrefix
}

// PortID returns the port identifier of a module address.
func (k *Keeper) PortID(addr sdk.AccAddress) string {
	return types.PortIDFromAddress(k.portPrefix, addr)
}

// GetParams returns the module parameters, falling back to the defaults when unset.
func (k *Keeper) GetParams(ctx context.Context) (types.Params, error) {
	params, err := k.params.Get(ctx)
	if errorsmod.IsOf(err, collections.ErrNotFound) {
		return types.DefaultParams(), nil
	}
	return params, err
}

// SetParams validates and stores the module parameters.
func (k *Keeper) SetParams(ctx context.Context, params types.Params) error {
	if err := params.Validate(); err != nil {
		return err
	}
	return k.params.Set(ctx, params)
}

// execute runs op against a branched context. State writes and events are
// committed to ctx only when op succeeds.
func (k *Keeper) execute(ctx context.Context, op string, fn func(ctx sdk.Context) ([]types.Event, error)) ([]types.Event, error) {
	defer telemetry.ModuleMeasureSince(types.ModuleName, time.Now(), op)

	sdkCtx := sdk.UnwrapSDKContext(ctx)
	cacheCtx, write := sdkCtx.CacheContext()

	events, err := fn(cacheCtx)
	if err != nil {
		telemetry.IncrCounterWithLabels([]string{types.ModuleName, op}, 1, []metrics.Label{telemetry.NewLabel("outcome", "failure")})
		k.Logger(ctx).Debug("operation rejected", "op", op, "err", err)
		return nil, err
	}

	cacheCtx.EventManager().EmitEvents(types.ToSDKEvents(events))
	write()

	telemetry.IncrCounterWithLabels([]string{types.ModuleName, op}, 1, []metrics.Label{telemetry.NewLabel("outcome", "success")})
	return events, nil
}
