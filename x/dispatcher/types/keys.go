package types

import (
	"encoding/hex"
	"fmt"
	"strings"

	"cosmossdk.io/collections"
)

const (
	// ModuleName defines the module name
	ModuleName = "dispatcher"

	// StoreKey defines the primary module store key
	StoreKey = ModuleName

	// DefaultPortPrefix is the namespace used to qualify module addresses into port identifiers.
	DefaultPortPrefix = "polyibc.celestia."
)

var (
	ParamsKey                  = collections.NewPrefix(0)
	ClientKey                  = collections.NewPrefix(1)
	ConsensusStatesKeyPrefix   = collections.NewPrefix(2)
	ChannelsKeyPrefix          = collections.NewPrefix(3)
	ChannelSequenceKey         = collections.NewPrefix(4)
	NextSequenceSendKeyPrefix  = collections.NewPrefix(5)
	NextSequenceRecvKeyPrefix  = collections.NewPrefix(6)
	NextSequenceAckKeyPrefix   = collections.NewPrefix(7)
	PacketCommitmentsKeyPrefix = collections.NewPrefix(8)
	PacketReceiptsKeyPrefix    = collections.NewPrefix(9)
	PacketAcksKeyPrefix        = collections.NewPrefix(10)
	ModulesKeyPrefix           = collections.NewPrefix(11)
)

// EncodeHex is a convenience function to encode byte slices as 0x prefixed hexadecimal strings.
func EncodeHex(bz []byte) string {
	return fmt.Sprintf("0x%s", hex.EncodeToString(bz))
}

// DecodeHex is a convenience function to decode 0x prefixed hexadecimal strings as byte slices.
func DecodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(s, "0x")

	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}

	return b, nil
}
