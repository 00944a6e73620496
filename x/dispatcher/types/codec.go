package types

import (
	"encoding/json"
	"fmt"

	collcodec "cosmossdk.io/collections/codec"
	"github.com/fxamacker/cbor/v2"
)

var (
	cborEncMode = mustCoreDetEncMode()
	cborDecMode = mustDecMode()
)

func mustCoreDetEncMode() cbor.EncMode {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return em
}

func mustDecMode() cbor.DecMode {
	dm, err := cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyEnforcedAPF,
		IndefLength: cbor.IndefLengthForbidden,
	}.DecMode()
	if err != nil {
		panic(err)
	}
	return dm
}

// CBORValue returns a collections value codec that stores T with
// deterministic CBOR and exposes it as JSON for genesis and queries.
func CBORValue[T any]() collcodec.ValueCodec[T] {
	return cborValue[T]{}
}

type cborValue[T any] struct{}

func (cborValue[T]) Encode(value T) ([]byte, error) {
	return cborEncMode.Marshal(value)
}

func (cborValue[T]) Decode(b []byte) (T, error) {
	var value T
	if err := cborDecMode.Unmarshal(b, &value); err != nil {
		return value, fmt.Errorf("cbor decode %T: %w", value, err)
	}
	return value, nil
}

func (cborValue[T]) EncodeJSON(value T) ([]byte, error) {
	return json.Marshal(value)
}

func (cborValue[T]) DecodeJSON(b []byte) (T, error) {
	var value T
	err := json.Unmarshal(b, &value)
	return value, err
}

func (cborValue[T]) Stringify(value T) string {
	return fmt.Sprintf("%v", value)
}

func (cborValue[T]) ValueType() string {
	var value T
	return fmt.Sprintf("cbor(%T)", value)
}
