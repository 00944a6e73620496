package keeper_test

import (
	"errors"
	"time"

	"cosmossdk.io/math"
	"github.com/celestiaorg/zkdispatch/x/dispatcher/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
	channeltypes "github.com/cosmos/ibc-go/v8/modules/core/04-channel/types"
)

const denom = "utia"

var packetTimeout = uint64(genesisTime.Add(time.Hour).UnixNano())

func (suite *KeeperTestSuite) setupChannel(ordering channeltypes.Order) types.Channel {
	suite.createClient()
	suite.registerModule()
	suite.bank.balances[suite.module.String()] = sdk.NewCoins(sdk.NewInt64Coin(denom, 1_000))
	return suite.openChannel(ordering)
}

func (suite *KeeperTestSuite) outgoingPacket(channel types.Channel, sequence uint64, data []byte) types.Packet {
	return types.Packet{
		Src:              channel.Endpoint(),
		Dest:             types.Endpoint{PortID: counterpartyPort, ChannelID: counterpartyChannel},
		Sequence:         sequence,
		Data:             data,
		TimeoutTimestamp: packetTimeout,
	}
}

// incomingPacket returns a packet committed by the counterparty on channel.
func (suite *KeeperTestSuite) incomingPacket(channel types.Channel, sequence uint64, data []byte, timeout uint64) types.Packet {
	packet := types.Packet{
		Src:              types.Endpoint{PortID: counterpartyPort, ChannelID: counterpartyChannel},
		Dest:             channel.Endpoint(),
		Sequence:         sequence,
		Data:             data,
		TimeoutTimestamp: timeout,
	}
	suite.counterparty.set(types.PacketCommitmentPath(counterpartyPort, counterpartyChannel, sequence), types.CommitPacket(packet))
	return packet
}

func fee(amount int64) sdk.Coins {
	return sdk.NewCoins(sdk.NewCoin(denom, math.NewInt(amount)))
}

func (suite *KeeperTestSuite) TestSendPacketSequences() {
	channel := suite.setupChannel(channeltypes.UNORDERED)

	for i := uint64(1); i <= 5; i++ {
		payload := []byte{byte(i)}
		sequence, events, err := suite.keeper.SendPacket(suite.ctx, suite.module, channel.ChannelID, payload, packetTimeout, fee(10))
		suite.Require().NoError(err)
		suite.Require().Equal(i, sequence)
		suite.Require().Equal([]types.Event{types.EventSendPacket{
			SourcePortAddress: suite.module,
			SourceChannelID:   channel.ChannelID,
			Payload:           payload,
			Sequence:          i,
			TimeoutTimestamp:  packetTimeout,
			Fee:               fee(10),
		}}, events)

		commitment, found, err := suite.keeper.GetPacketCommitment(suite.ctx, suite.module, channel.ChannelID, i)
		suite.Require().NoError(err)
		suite.Require().True(found)
		suite.Require().Equal(types.CommitPacket(suite.outgoingPacket(channel, i, payload)), commitment.Commitment)
	}

	next, err := suite.keeper.GetNextSequenceSend(suite.ctx, suite.module, channel.ChannelID)
	suite.Require().NoError(err)
	suite.Require().Equal(uint64(6), next)

	suite.Require().Equal(fee(950), suite.bank.balances[suite.module.String()])
	suite.Require().Equal(fee(50), suite.bank.modules[types.ModuleName])
}

func (suite *KeeperTestSuite) TestSendPacketFailures() {
	channel := suite.setupChannel(channeltypes.UNORDERED)

	_, _, err := suite.keeper.SendPacket(suite.ctx, suite.relayer, channel.ChannelID, []byte("data"), packetTimeout, nil)
	suite.Require().ErrorIs(err, types.ErrChannelNotOpen)

	_, _, err = suite.keeper.SendPacket(suite.ctx, suite.module, types.ChannelIDFromString("channel-42"), []byte("data"), packetTimeout, nil)
	suite.Require().ErrorIs(err, types.ErrChannelNotOpen)

	_, _, err = suite.keeper.SendPacket(suite.ctx, suite.module, channel.ChannelID, []byte("data"), packetTimeout, fee(5_000))
	suite.Require().ErrorIs(err, sdkerrors.ErrInsufficientFunds)

	// a packet without a reachable deadline could never release its fee
	_, _, err = suite.keeper.SendPacket(suite.ctx, suite.module, channel.ChannelID, []byte("data"), 0, fee(10))
	suite.Require().ErrorIs(err, types.ErrInvalidPacket)

	blockTime := uint64(genesisTime.UnixNano())
	_, _, err = suite.keeper.SendPacket(suite.ctx, suite.module, channel.ChannelID, []byte("data"), blockTime, fee(10))
	suite.Require().ErrorIs(err, types.ErrInvalidPacket)

	_, _, err = suite.keeper.SendPacket(suite.ctx, suite.module, channel.ChannelID, []byte("data"), blockTime-1, fee(10))
	suite.Require().ErrorIs(err, types.ErrInvalidPacket)
	suite.Require().Equal(fee(1_000), suite.bank.balances[suite.module.String()])

	// the failed send must not consume a sequence
	next, err := suite.keeper.GetNextSequenceSend(suite.ctx, suite.module, channel.ChannelID)
	suite.Require().NoError(err)
	suite.Require().Equal(uint64(1), next)

	_, err = suite.keeper.CloseIbcChannel(suite.ctx, suite.module, channel.ChannelID)
	suite.Require().NoError(err)

	_, _, err = suite.keeper.SendPacket(suite.ctx, suite.module, channel.ChannelID, []byte("data"), packetTimeout, nil)
	suite.Require().ErrorIs(err, types.ErrChannelNotOpen)
}

func (suite *KeeperTestSuite) TestRecvPacket() {
	channel := suite.setupChannel(channeltypes.UNORDERED)
	packet := suite.incomingPacket(channel, 3, []byte("hello"), packetTimeout)

	_, _, err := suite.keeper.RecvPacket(suite.ctx, suite.relayer, packet, types.NewProof(suite.trusted.Height, nil))
	suite.Require().ErrorIs(err, types.ErrProofInvalid)

	ack, events, err := suite.keeper.RecvPacket(suite.ctx, suite.relayer, packet, suite.proofAt(suite.trusted.Height))
	suite.Require().NoError(err)
	suite.Require().Equal([]byte("ack:hello"), ack)
	suite.Require().Equal([]types.Event{
		types.EventRecvPacket{DestPortAddress: suite.module, DestChannelID: channel.ChannelID, Sequence: 3},
		types.EventWriteAckPacket{WriterPortAddress: suite.module, WriterChannelID: channel.ChannelID, Sequence: 3, AckPacket: ack},
	}, events)
	suite.Require().Equal([]types.Packet{packet}, suite.receiver.received)

	received, err := suite.keeper.HasPacketReceipt(suite.ctx, suite.module, channel.ChannelID, 3)
	suite.Require().NoError(err)
	suite.Require().True(received)

	stored, found, err := suite.keeper.GetPacketAcknowledgement(suite.ctx, suite.module, channel.ChannelID, 3)
	suite.Require().NoError(err)
	suite.Require().True(found)
	suite.Require().Equal(types.CommitAcknowledgement(ack), stored)

	_, _, err = suite.keeper.RecvPacket(suite.ctx, suite.relayer, packet, suite.proofAt(suite.trusted.Height))
	suite.Require().ErrorIs(err, types.ErrDuplicateOrOutOfOrder)

	// unordered channels accept any unseen sequence
	earlier := suite.incomingPacket(channel, 1, []byte("earlier"), packetTimeout)
	_, _, err = suite.keeper.RecvPacket(suite.ctx, suite.relayer, earlier, suite.proofAt(suite.trusted.Height))
	suite.Require().NoError(err)
}

func (suite *KeeperTestSuite) TestRecvPacketOrdered() {
	channel := suite.setupChannel(channeltypes.ORDERED)

	second := suite.incomingPacket(channel, 2, []byte("second"), packetTimeout)
	_, _, err := suite.keeper.RecvPacket(suite.ctx, suite.relayer, second, suite.proofAt(suite.trusted.Height))
	suite.Require().ErrorIs(err, types.ErrDuplicateOrOutOfOrder)

	first := suite.incomingPacket(channel, 1, []byte("first"), packetTimeout)
	_, _, err = suite.keeper.RecvPacket(suite.ctx, suite.relayer, first, suite.proofAt(suite.trusted.Height))
	suite.Require().NoError(err)

	_, _, err = suite.keeper.RecvPacket(suite.ctx, suite.relayer, first, suite.proofAt(suite.trusted.Height))
	suite.Require().ErrorIs(err, types.ErrDuplicateOrOutOfOrder)

	_, _, err = suite.keeper.RecvPacket(suite.ctx, suite.relayer, second, suite.proofAt(suite.trusted.Height))
	suite.Require().NoError(err)

	next, err := suite.keeper.GetNextSequenceRecv(suite.ctx, suite.module, channel.ChannelID)
	suite.Require().NoError(err)
	suite.Require().Equal(uint64(3), next)
}

func (suite *KeeperTestSuite) TestRecvPacketTimedOut() {
	channel := suite.setupChannel(channeltypes.UNORDERED)
	deadline := uint64(genesisTime.Add(time.Minute).UnixNano())
	packet := suite.incomingPacket(channel, 1, []byte("late"), deadline)

	ctx := suite.ctx.WithBlockTime(genesisTime.Add(time.Minute))
	_, _, err := suite.keeper.RecvPacket(ctx, suite.relayer, packet, suite.proofAt(suite.trusted.Height))
	suite.Require().ErrorIs(err, types.ErrPacketTimedOut)

	_, found, err := suite.keeper.GetPacketAcknowledgement(suite.ctx, suite.module, channel.ChannelID, 1)
	suite.Require().NoError(err)
	suite.Require().False(found)
	suite.Require().Empty(suite.receiver.received)
}

func (suite *KeeperTestSuite) TestRecvPacketRejectsForeignCounterparty() {
	channel := suite.setupChannel(channeltypes.UNORDERED)
	packet := suite.incomingPacket(channel, 1, []byte("data"), packetTimeout)
	packet.Src.PortID = "polyibc.eth.somebodyelse"

	_, _, err := suite.keeper.RecvPacket(suite.ctx, suite.relayer, packet, suite.proofAt(suite.trusted.Height))
	suite.Require().ErrorIs(err, types.ErrInvalidPacket)
}

func (suite *KeeperTestSuite) TestRecvPacketCallbackFailureIsAtomic() {
	channel := suite.setupChannel(channeltypes.ORDERED)
	packet := suite.incomingPacket(channel, 1, []byte("data"), packetTimeout)
	suite.receiver.err = errors.New("application error")

	_, _, err := suite.keeper.RecvPacket(suite.ctx, suite.relayer, packet, suite.proofAt(suite.trusted.Height))
	suite.Require().ErrorContains(err, "application error")

	received, err := suite.keeper.HasPacketReceipt(suite.ctx, suite.module, channel.ChannelID, 1)
	suite.Require().NoError(err)
	suite.Require().False(received)

	next, err := suite.keeper.GetNextSequenceRecv(suite.ctx, suite.module, channel.ChannelID)
	suite.Require().NoError(err)
	suite.Require().Equal(uint64(1), next)
}

func (suite *KeeperTestSuite) TestAcknowledgePacket() {
	channel := suite.setupChannel(channeltypes.UNORDERED)

	sequence, _, err := suite.keeper.SendPacket(suite.ctx, suite.module, channel.ChannelID, []byte("data"), packetTimeout, fee(100))
	suite.Require().NoError(err)
	packet := suite.outgoingPacket(channel, sequence, []byte("data"))

	ack := []byte("ack:data")
	_, err = suite.keeper.AcknowledgePacket(suite.ctx, suite.relayer, packet, ack, suite.proofAt(suite.trusted.Height))
	suite.Require().ErrorIs(err, types.ErrProofInvalid)

	suite.counterparty.set(types.PacketAcknowledgementPath(counterpartyPort, counterpartyChannel, sequence), types.CommitAcknowledgement(ack))

	tampered := packet
	tampered.Data = []byte("other")
	_, err = suite.keeper.AcknowledgePacket(suite.ctx, suite.relayer, tampered, ack, suite.proofAt(suite.trusted.Height))
	suite.Require().ErrorIs(err, types.ErrInvalidPacket)

	events, err := suite.keeper.AcknowledgePacket(suite.ctx, suite.relayer, packet, ack, suite.proofAt(suite.trusted.Height))
	suite.Require().NoError(err)
	suite.Require().Equal([]types.Event{types.EventAcknowledgement{
		SourcePortAddress: suite.module,
		SourceChannelID:   channel.ChannelID,
		Sequence:          sequence,
	}}, events)
	suite.Require().Equal([]types.Packet{packet}, suite.receiver.acked)

	suite.Require().Equal(fee(100), suite.bank.balances[suite.relayer.String()])
	suite.Require().True(suite.bank.modules[types.ModuleName].IsZero())

	_, found, err := suite.keeper.GetPacketCommitment(suite.ctx, suite.module, channel.ChannelID, sequence)
	suite.Require().NoError(err)
	suite.Require().False(found)

	_, err = suite.keeper.AcknowledgePacket(suite.ctx, suite.relayer, packet, ack, suite.proofAt(suite.trusted.Height))
	suite.Require().ErrorIs(err, types.ErrDuplicateOrOutOfOrder)

	unsent := suite.outgoingPacket(channel, sequence+1, []byte("data"))
	_, err = suite.keeper.AcknowledgePacket(suite.ctx, suite.relayer, unsent, ack, suite.proofAt(suite.trusted.Height))
	suite.Require().ErrorIs(err, types.ErrPacketCommitmentNotFound)
}

func (suite *KeeperTestSuite) TestAcknowledgePacketOrdered() {
	channel := suite.setupChannel(channeltypes.ORDERED)
	ack := []byte("ack")

	var packets []types.Packet
	for range 2 {
		sequence, _, err := suite.keeper.SendPacket(suite.ctx, suite.module, channel.ChannelID, []byte("data"), packetTimeout, nil)
		suite.Require().NoError(err)
		packets = append(packets, suite.outgoingPacket(channel, sequence, []byte("data")))
		suite.counterparty.set(types.PacketAcknowledgementPath(counterpartyPort, counterpartyChannel, sequence), types.CommitAcknowledgement(ack))
	}

	_, err := suite.keeper.AcknowledgePacket(suite.ctx, suite.relayer, packets[1], ack, suite.proofAt(suite.trusted.Height))
	suite.Require().ErrorIs(err, types.ErrDuplicateOrOutOfOrder)

	for _, packet := range packets {
		_, err := suite.keeper.AcknowledgePacket(suite.ctx, suite.relayer, packet, ack, suite.proofAt(suite.trusted.Height))
		suite.Require().NoError(err)
	}

	next, err := suite.keeper.GetNextSequenceAck(suite.ctx, suite.module, channel.ChannelID)
	suite.Require().NoError(err)
	suite.Require().Equal(uint64(3), next)
}

func (suite *KeeperTestSuite) TestTimeoutPacket() {
	channel := suite.setupChannel(channeltypes.UNORDERED)

	sequence, _, err := suite.keeper.SendPacket(suite.ctx, suite.module, channel.ChannelID, []byte("data"), packetTimeout, fee(100))
	suite.Require().NoError(err)
	packet := suite.outgoingPacket(channel, sequence, []byte("data"))

	_, err = suite.keeper.TimeoutPacket(suite.ctx, suite.relayer, packet, suite.proofAt(suite.trusted.Height))
	suite.Require().ErrorIs(err, types.ErrTimeoutNotReached)

	elapsed := suite.advanceClient(packetTimeout)

	suite.counterparty.set(types.PacketReceiptPath(counterpartyPort, counterpartyChannel, sequence), []byte{1})
	_, err = suite.keeper.TimeoutPacket(suite.ctx, suite.relayer, packet, suite.proofAt(elapsed.Height))
	suite.Require().ErrorIs(err, types.ErrProofInvalid)
	delete(suite.counterparty.state, types.PacketReceiptPath(counterpartyPort, counterpartyChannel, sequence))

	events, err := suite.keeper.TimeoutPacket(suite.ctx, suite.relayer, packet, suite.proofAt(elapsed.Height))
	suite.Require().NoError(err)
	suite.Require().Equal([]types.Event{
		types.EventTimeout{SourcePortAddress: suite.module, SourceChannelID: channel.ChannelID, Sequence: sequence},
		types.EventWriteTimeoutPacket{WriterPortAddress: suite.module, WriterChannelID: channel.ChannelID, Sequence: sequence, TimeoutTimestamp: packetTimeout},
	}, events)
	suite.Require().Equal([]types.Packet{packet}, suite.receiver.timedOut)
	suite.Require().Equal(fee(100), suite.bank.balances[suite.relayer.String()])

	stored, err := suite.keeper.GetChannel(suite.ctx, suite.module, channel.ChannelID)
	suite.Require().NoError(err)
	suite.Require().True(stored.IsOpen())

	_, err = suite.keeper.TimeoutPacket(suite.ctx, suite.relayer, packet, suite.proofAt(elapsed.Height))
	suite.Require().ErrorIs(err, types.ErrDuplicateOrOutOfOrder)
}

func (suite *KeeperTestSuite) TestTimeoutPacketOrderedClosesChannel() {
	channel := suite.setupChannel(channeltypes.ORDERED)

	sequence, _, err := suite.keeper.SendPacket(suite.ctx, suite.module, channel.ChannelID, []byte("data"), packetTimeout, nil)
	suite.Require().NoError(err)
	packet := suite.outgoingPacket(channel, sequence, []byte("data"))

	elapsed := suite.advanceClient(packetTimeout + 1)
	events, err := suite.keeper.TimeoutPacket(suite.ctx, suite.relayer, packet, suite.proofAt(elapsed.Height))
	suite.Require().NoError(err)
	suite.Require().Len(events, 3)
	suite.Require().Equal(types.EventCloseIbcChannel{PortAddress: suite.module, ChannelID: channel.ChannelID}, events[2])

	stored, err := suite.keeper.GetChannel(suite.ctx, suite.module, channel.ChannelID)
	suite.Require().NoError(err)
	suite.Require().Equal(channeltypes.CLOSED, stored.State)
	suite.Require().Len(suite.receiver.closed, 1)
}

func (suite *KeeperTestSuite) TestPacketResolvesExactlyOnce() {
	testCases := []struct {
		name    string
		resolve func(packet types.Packet, height uint64) error
		other   func(packet types.Packet, height uint64) error
	}{
		{
			name: "acknowledged then timed out",
			resolve: func(packet types.Packet, height uint64) error {
				_, err := suite.keeper.AcknowledgePacket(suite.ctx, suite.relayer, packet, []byte("ack"), suite.proofAt(height))
				return err
			},
			other: func(packet types.Packet, height uint64) error {
				_, err := suite.keeper.TimeoutPacket(suite.ctx, suite.authority, packet, suite.proofAt(height))
				return err
			},
		},
		{
			name: "timed out then acknowledged",
			resolve: func(packet types.Packet, height uint64) error {
				_, err := suite.keeper.TimeoutPacket(suite.ctx, suite.relayer, packet, suite.proofAt(height))
				return err
			},
			other: func(packet types.Packet, height uint64) error {
				_, err := suite.keeper.AcknowledgePacket(suite.ctx, suite.authority, packet, []byte("ack"), suite.proofAt(height))
				return err
			},
		},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			suite.SetupTest()
			channel := suite.setupChannel(channeltypes.UNORDERED)

			sequence, _, err := suite.keeper.SendPacket(suite.ctx, suite.module, channel.ChannelID, []byte("data"), packetTimeout, fee(100))
			suite.Require().NoError(err)
			packet := suite.outgoingPacket(channel, sequence, []byte("data"))

			// both proofs verify, only resolution bookkeeping can reject the second path
			elapsed := suite.advanceClient(packetTimeout)
			suite.counterparty.set(types.PacketAcknowledgementPath(counterpartyPort, counterpartyChannel, sequence), types.CommitAcknowledgement([]byte("ack")))

			suite.Require().NoError(tc.resolve(packet, elapsed.Height))

			err = tc.other(packet, elapsed.Height)
			suite.Require().ErrorIs(err, types.ErrDuplicateOrOutOfOrder)

			suite.Require().Equal(fee(100), suite.bank.balances[suite.relayer.String()])
			suite.Require().True(suite.bank.balances[suite.authority.String()].IsZero())
			suite.Require().True(suite.bank.modules[types.ModuleName].IsZero())
		})
	}
}

func (suite *KeeperTestSuite) TestRecvPacketAfterClientUpgrade() {
	channel := suite.setupChannel(channeltypes.UNORDERED)
	packet := suite.incomingPacket(channel, 1, []byte("hello"), packetTimeout)

	upgraded := types.NewConsensusState(2, rootOf(0x0c), 50, suite.trusted.Timestamp+10)
	_, err := suite.keeper.UpgradeClient(suite.ctx, suite.authority, []byte("client-state-v2"), upgraded)
	suite.Require().NoError(err)

	_, _, err = suite.keeper.RecvPacket(suite.ctx, suite.relayer, packet, suite.proofAt(suite.trusted.Height))
	suite.Require().ErrorIs(err, types.ErrConsensusStateNotFound)
	suite.Require().Empty(suite.receiver.received)

	_, _, err = suite.keeper.RecvPacket(suite.ctx, suite.relayer, packet, suite.proofAt(upgraded.Height))
	suite.Require().NoError(err)
}
