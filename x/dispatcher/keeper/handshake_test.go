package keeper_test

import (
	"errors"

	"github.com/celestiaorg/zkdispatch/x/dispatcher/types"
	channeltypes "github.com/cosmos/ibc-go/v8/modules/core/04-channel/types"
)

var counterpartyChannel = types.ChannelIDFromString("channel-7")

// openChannel runs the handshake initiated locally: open with an unknown
// counterparty channel followed by connect.
func (suite *KeeperTestSuite) openChannel(ordering channeltypes.Order) types.Channel {
	suite.counterparty.set(types.PortPath(counterpartyPort), []byte(connectionHop))

	channel, _, err := suite.keeper.OpenIbcChannel(
		suite.ctx,
		suite.module,
		testVersion,
		ordering,
		[]string{connectionHop},
		types.CounterParty{PortID: counterpartyPort},
		suite.proofAt(suite.trusted.Height),
	)
	suite.Require().NoError(err)

	suite.counterparty.set(types.ChannelPath(counterpartyPort, counterpartyChannel), types.CommitChannelEnd(types.ChannelEnd{
		State:                 channeltypes.TRYOPEN,
		Ordering:              ordering,
		Version:               testVersion,
		CounterpartyPortID:    suite.portID(),
		CounterpartyChannelID: channel.ChannelID,
	}))

	_, err = suite.keeper.ConnectIbcChannel(suite.ctx, suite.module, channel.ChannelID, counterpartyChannel, testVersion, suite.proofAt(suite.trusted.Height))
	suite.Require().NoError(err)

	channel, err = suite.keeper.GetChannel(suite.ctx, suite.module, channel.ChannelID)
	suite.Require().NoError(err)
	suite.Require().True(channel.IsOpen())
	return channel
}

func (suite *KeeperTestSuite) TestOpenIbcChannelVersionNegotiation() {
	testCases := []struct {
		name         string
		selfVersion  string
		counterparty types.CounterParty
		expVersion   string
		expErr       error
	}{
		{
			name:         "unknown counterparty channel, self version proposed",
			selfVersion:  testVersion,
			counterparty: types.CounterParty{PortID: counterpartyPort},
			expVersion:   testVersion,
		},
		{
			name:         "unknown counterparty channel, empty self version",
			selfVersion:  "",
			counterparty: types.CounterParty{PortID: counterpartyPort, Version: "polyibc-v2"},
			expErr:       types.ErrUnsupportedVersion,
		},
		{
			name:         "known counterparty channel, self version proposed",
			selfVersion:  testVersion,
			counterparty: types.CounterParty{PortID: counterpartyPort, ChannelID: counterpartyChannel, Version: testVersion},
			expVersion:   testVersion,
		},
		{
			name:         "known counterparty channel, empty self version adopts counterparty",
			selfVersion:  "",
			counterparty: types.CounterParty{PortID: counterpartyPort, ChannelID: counterpartyChannel, Version: "polyibc-v2"},
			expVersion:   "polyibc-v2",
		},
		{
			name:         "unknown counterparty channel, unsupported self version",
			selfVersion:  "unknown-version",
			counterparty: types.CounterParty{PortID: counterpartyPort},
			expErr:       types.ErrUnsupportedVersion,
		},
		{
			name:         "known counterparty channel, unsupported counterparty version",
			selfVersion:  "",
			counterparty: types.CounterParty{PortID: counterpartyPort, ChannelID: counterpartyChannel, Version: "unknown-version"},
			expErr:       types.ErrUnsupportedVersion,
		},
	}

	for _, ordering := range []channeltypes.Order{channeltypes.ORDERED, channeltypes.UNORDERED} {
		for _, tc := range testCases {
			suite.Run(ordering.String()+"/"+tc.name, func() {
				suite.SetupTest()
				suite.createClient()
				suite.registerModule()

				suite.counterparty.set(types.PortPath(counterpartyPort), []byte(connectionHop))
				suite.counterparty.set(types.ChannelPath(counterpartyPort, counterpartyChannel), types.CommitChannelEnd(types.ChannelEnd{
					State:              channeltypes.INIT,
					Ordering:           ordering,
					Version:            tc.counterparty.Version,
					CounterpartyPortID: suite.portID(),
				}))

				channel, events, err := suite.keeper.OpenIbcChannel(
					suite.ctx,
					suite.module,
					tc.selfVersion,
					ordering,
					[]string{connectionHop, "connection-1"},
					tc.counterparty,
					suite.proofAt(suite.trusted.Height),
				)

				if tc.expErr != nil {
					suite.Require().ErrorIs(err, tc.expErr)
					channels, err := suite.keeper.GetChannels(suite.ctx, suite.module)
					suite.Require().NoError(err)
					suite.Require().Empty(channels)
					suite.Require().Empty(suite.receiver.opened)
					return
				}

				suite.Require().NoError(err)
				suite.Require().Equal([]types.Event{types.EventOpenIbcChannel{
					PortAddress:           suite.module,
					Version:               tc.expVersion,
					Ordering:              ordering,
					ConnectionHops:        []string{connectionHop, "connection-1"},
					CounterpartyPortID:    counterpartyPort,
					CounterpartyChannelID: tc.counterparty.ChannelID,
				}}, events)

				stored, err := suite.keeper.GetChannel(suite.ctx, suite.module, channel.ChannelID)
				suite.Require().NoError(err)
				suite.Require().Equal(channeltypes.INIT, stored.State)
				suite.Require().Equal(tc.expVersion, stored.Version)
				suite.Require().Equal(suite.portID(), stored.PortID)
				suite.Require().Equal("channel-0", stored.ChannelID.String())
				suite.Require().Len(suite.receiver.opened, 1)
			})
		}
	}
}

func (suite *KeeperTestSuite) TestOpenIbcChannelValidation() {
	validCounterparty := types.CounterParty{PortID: counterpartyPort}

	testCases := []struct {
		name         string
		malleate     func()
		hops         []string
		ordering     channeltypes.Order
		counterparty types.CounterParty
		expErr       error
	}{
		{
			name:         "module not registered",
			malleate:     func() { suite.createClient() },
			hops:         []string{connectionHop},
			ordering:     channeltypes.UNORDERED,
			counterparty: validCounterparty,
			expErr:       types.ErrModuleNotRegistered,
		},
		{
			name:         "client not created",
			malleate:     func() { suite.registerModule() },
			hops:         []string{connectionHop},
			ordering:     channeltypes.UNORDERED,
			counterparty: validCounterparty,
			expErr:       types.ErrClientNotCreated,
		},
		{
			name:         "empty connection hops",
			malleate:     func() { suite.createClient(); suite.registerModule() },
			ordering:     channeltypes.UNORDERED,
			counterparty: validCounterparty,
			expErr:       types.ErrInvalidConnectionHops,
		},
		{
			name:         "invalid ordering",
			malleate:     func() { suite.createClient(); suite.registerModule() },
			hops:         []string{connectionHop},
			ordering:     channeltypes.NONE,
			counterparty: validCounterparty,
			expErr:       types.ErrInvalidChannelOrdering,
		},
		{
			name:         "empty counterparty port",
			malleate:     func() { suite.createClient(); suite.registerModule() },
			hops:         []string{connectionHop},
			ordering:     channeltypes.UNORDERED,
			counterparty: types.CounterParty{},
			expErr:       types.ErrInvalidCounterparty,
		},
		{
			name:         "counterparty port not bound on connection",
			malleate:     func() { suite.createClient(); suite.registerModule() },
			hops:         []string{"connection-9"},
			ordering:     channeltypes.UNORDERED,
			counterparty: validCounterparty,
			expErr:       types.ErrProofInvalid,
		},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			suite.SetupTest()
			suite.counterparty.set(types.PortPath(counterpartyPort), []byte(connectionHop))
			tc.malleate()

			_, _, err := suite.keeper.OpenIbcChannel(suite.ctx, suite.module, testVersion, tc.ordering, tc.hops, tc.counterparty, suite.proofAt(suite.trusted.Height))
			suite.Require().ErrorIs(err, tc.expErr)
		})
	}
}

func (suite *KeeperTestSuite) TestOpenIbcChannelCallbackFailure() {
	suite.createClient()
	suite.registerModule()
	suite.counterparty.set(types.PortPath(counterpartyPort), []byte(connectionHop))
	suite.receiver.err = errors.New("rejected by module")

	_, _, err := suite.keeper.OpenIbcChannel(suite.ctx, suite.module, testVersion, channeltypes.UNORDERED, []string{connectionHop}, types.CounterParty{PortID: counterpartyPort}, suite.proofAt(suite.trusted.Height))
	suite.Require().ErrorContains(err, "rejected by module")

	channels, err := suite.keeper.GetChannels(suite.ctx, suite.module)
	suite.Require().NoError(err)
	suite.Require().Empty(channels)
}

func (suite *KeeperTestSuite) TestConnectIbcChannel() {
	suite.createClient()
	suite.registerModule()

	channel := suite.openChannel(channeltypes.ORDERED)
	suite.Require().Equal(counterpartyChannel, channel.Counterparty.ChannelID)
	suite.Require().Equal(testVersion, channel.Counterparty.Version)
	suite.Require().Len(suite.receiver.connected, 1)

	_, err := suite.keeper.ConnectIbcChannel(suite.ctx, suite.module, channel.ChannelID, counterpartyChannel, testVersion, suite.proofAt(suite.trusted.Height))
	suite.Require().ErrorIs(err, types.ErrInvalidChannelState)
}

func (suite *KeeperTestSuite) TestConnectIbcChannelCounterpartyInitiated() {
	suite.createClient()
	suite.registerModule()

	suite.counterparty.set(types.ChannelPath(counterpartyPort, counterpartyChannel), types.CommitChannelEnd(types.ChannelEnd{
		State:              channeltypes.INIT,
		Ordering:           channeltypes.UNORDERED,
		Version:            testVersion,
		CounterpartyPortID: suite.portID(),
	}))

	channel, _, err := suite.keeper.OpenIbcChannel(suite.ctx, suite.module, "", channeltypes.UNORDERED, []string{connectionHop},
		types.CounterParty{PortID: counterpartyPort, ChannelID: counterpartyChannel, Version: testVersion}, suite.proofAt(suite.trusted.Height))
	suite.Require().NoError(err)

	// the counterparty end is still TRYOPEN-shaped, a confirmation requires OPEN
	suite.counterparty.set(types.ChannelPath(counterpartyPort, counterpartyChannel), types.CommitChannelEnd(types.ChannelEnd{
		State:                 channeltypes.TRYOPEN,
		Ordering:              channeltypes.UNORDERED,
		Version:               testVersion,
		CounterpartyPortID:    suite.portID(),
		CounterpartyChannelID: channel.ChannelID,
	}))
	_, err = suite.keeper.ConnectIbcChannel(suite.ctx, suite.module, channel.ChannelID, counterpartyChannel, testVersion, suite.proofAt(suite.trusted.Height))
	suite.Require().ErrorIs(err, types.ErrProofInvalid)

	suite.counterparty.set(types.ChannelPath(counterpartyPort, counterpartyChannel), types.CommitChannelEnd(types.ChannelEnd{
		State:                 channeltypes.OPEN,
		Ordering:              channeltypes.UNORDERED,
		Version:               testVersion,
		CounterpartyPortID:    suite.portID(),
		CounterpartyChannelID: channel.ChannelID,
	}))

	other := types.ChannelIDFromString("channel-8")
	_, err = suite.keeper.ConnectIbcChannel(suite.ctx, suite.module, channel.ChannelID, other, testVersion, suite.proofAt(suite.trusted.Height))
	suite.Require().ErrorIs(err, types.ErrInvalidCounterparty)

	_, err = suite.keeper.ConnectIbcChannel(suite.ctx, suite.module, channel.ChannelID, counterpartyChannel, "polyibc-v2", suite.proofAt(suite.trusted.Height))
	suite.Require().ErrorIs(err, types.ErrUnsupportedVersion)

	events, err := suite.keeper.ConnectIbcChannel(suite.ctx, suite.module, channel.ChannelID, counterpartyChannel, testVersion, suite.proofAt(suite.trusted.Height))
	suite.Require().NoError(err)
	suite.Require().Equal([]types.Event{types.EventConnectIbcChannel{PortAddress: suite.module, ChannelID: channel.ChannelID}}, events)
}

func (suite *KeeperTestSuite) TestCloseIbcChannel() {
	suite.createClient()
	suite.registerModule()
	channel := suite.openChannel(channeltypes.UNORDERED)

	events, err := suite.keeper.CloseIbcChannel(suite.ctx, suite.module, channel.ChannelID)
	suite.Require().NoError(err)
	suite.Require().Equal([]types.Event{types.EventCloseIbcChannel{PortAddress: suite.module, ChannelID: channel.ChannelID}}, events)
	suite.Require().Len(suite.receiver.closed, 1)

	stored, err := suite.keeper.GetChannel(suite.ctx, suite.module, channel.ChannelID)
	suite.Require().NoError(err)
	suite.Require().Equal(channeltypes.CLOSED, stored.State)

	_, err = suite.keeper.CloseIbcChannel(suite.ctx, suite.module, channel.ChannelID)
	suite.Require().ErrorIs(err, types.ErrChannelNotOpen)

	_, err = suite.keeper.CloseIbcChannel(suite.ctx, suite.module, types.ChannelIDFromString("channel-42"))
	suite.Require().ErrorIs(err, types.ErrChannelNotFound)
}
