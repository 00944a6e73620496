package groth16

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	curve "github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fp"
	bn254fr "github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/backend/groth16"
	bn254 "github.com/consensys/gnark/backend/groth16/bn254" //nolint:revive,stylecheck
	"github.com/consensys/gnark/backend/witness"
)

// VerifyingKey is a simple type alias for the underlying gnark groth16 VerifyingKey.
type VerifyingKey = groth16.VerifyingKey

// Proof is the BN254 groth16 proof produced and consumed by this package.
type Proof = bn254.Proof

// NewVerifyingKey deserializes a Groth16 verifying key for the BN254 curve from a byte slice.
//
// The entire input must be consumed during deserialization so that trailing or
// truncated data is rejected.
func NewVerifyingKey(keyBz []byte) (groth16.VerifyingKey, error) {
	vk := groth16.NewVerifyingKey(ecc.BN254)
	n, err := vk.ReadFrom(bytes.NewReader(keyBz))
	if err != nil {
		return nil, fmt.Errorf("error unmarshaling verifier key: %v", err)
	}

	if int(n) != len(keyBz) {
		return nil, fmt.Errorf("invalid key length: expected %d, got %d", len(keyBz), n)
	}

	return vk, nil
}

// VerifyProof verifies a Groth16 proof against a verifying key and a public witness.
func VerifyProof(proof groth16.Proof, vk groth16.VerifyingKey, publicWitness witness.Witness) error {
	return groth16.Verify(proof, vk, publicWitness)
}

// NewProof assembles a BN254 proof from affine coordinates.
//
// The G2 element follows the EVM precompile convention: each coordinate pair is
// given as (imaginary, real), i.e. b[0] = {X.A1, X.A0} and b[1] = {Y.A1, Y.A0}.
// Coordinates must be canonical base field elements and no element may be the
// point at infinity.
func NewProof(a [2]*big.Int, b [2][2]*big.Int, c [2]*big.Int) (*bn254.Proof, error) {
	coords := []*big.Int{a[0], a[1], b[0][0], b[0][1], b[1][0], b[1][1], c[0], c[1]}
	modulus := fp.Modulus()
	for i, coord := range coords {
		if coord == nil {
			return nil, fmt.Errorf("proof coordinate %d is nil", i)
		}
		if coord.Sign() < 0 || coord.Cmp(modulus) >= 0 {
			return nil, fmt.Errorf("proof coordinate %d is not a canonical field element", i)
		}
	}

	proof := &bn254.Proof{}
	proof.Ar.X.SetBigInt(a[0])
	proof.Ar.Y.SetBigInt(a[1])
	proof.Bs.X.A1.SetBigInt(b[0][0])
	proof.Bs.X.A0.SetBigInt(b[0][1])
	proof.Bs.Y.A1.SetBigInt(b[1][0])
	proof.Bs.Y.A0.SetBigInt(b[1][1])
	proof.Krs.X.SetBigInt(c[0])
	proof.Krs.Y.SetBigInt(c[1])

	if proof.Ar.IsInfinity() || proof.Bs.IsInfinity() || proof.Krs.IsInfinity() {
		return nil, errors.New("proof element is the point at infinity")
	}
	if !proof.Ar.IsInSubGroup() || !proof.Krs.IsInSubGroup() {
		return nil, errors.New("G1 proof element is not in the prime subgroup")
	}
	if !proof.Bs.IsInSubGroup() {
		return nil, errors.New("G2 proof element is not in the prime subgroup")
	}

	return proof, nil
}

// Coordinates returns the affine coordinates of a proof in the layout accepted by NewProof.
func Coordinates(proof *bn254.Proof) (a [2]*big.Int, b [2][2]*big.Int, c [2]*big.Int) {
	a = [2]*big.Int{toBig(proof.Ar.X), toBig(proof.Ar.Y)}
	b = [2][2]*big.Int{
		{toBig(proof.Bs.X.A1), toBig(proof.Bs.X.A0)},
		{toBig(proof.Bs.Y.A1), toBig(proof.Bs.Y.A0)},
	}
	c = [2]*big.Int{toBig(proof.Krs.X), toBig(proof.Krs.Y)}
	return a, b, c
}

func toBig(e fp.Element) *big.Int {
	return e.BigInt(new(big.Int))
}

// UnmarshalProof deserializes a Groth16 proof encoded as bytes into a bn254.Proof.
//
// The input is expected to contain the three elliptic curve elements Ar, Bs and
// Krs in order, encoded with the gnark-crypto BN254 encoder.
func UnmarshalProof(proofBz []byte) (*bn254.Proof, error) {
	proof := &bn254.Proof{}
	dec := curve.NewDecoder(bytes.NewReader(proofBz))

	if err := dec.Decode(&proof.Ar); err != nil {
		return nil, fmt.Errorf("error unmarshaling proof: %v", err)
	}
	if err := dec.Decode(&proof.Bs); err != nil {
		return nil, fmt.Errorf("error unmarshaling proof: %v", err)
	}
	if err := dec.Decode(&proof.Krs); err != nil {
		return nil, fmt.Errorf("error unmarshaling proof: %v", err)
	}

	return proof, nil
}

// MarshalProof encodes the Ar, Bs and Krs elements of a proof in the format read by UnmarshalProof.
func MarshalProof(proof *bn254.Proof) ([]byte, error) {
	var buf bytes.Buffer
	enc := curve.NewEncoder(&buf)
	for _, v := range []any{&proof.Ar, &proof.Bs, &proof.Krs} {
		if err := enc.Encode(v); err != nil {
			return nil, fmt.Errorf("error marshaling proof: %v", err)
		}
	}
	return buf.Bytes(), nil
}

// HashBN254 hashes the buffer using SHA-256, masks the top 3 bits, and returns a big.Int
// compliant with BN254 field elements.
func HashBN254(data []byte) *big.Int {
	hash := sha256.Sum256(data)

	// mask the top 3 bits of the first byte (most significant bits)
	hash[0] &= 0b00011111

	return new(big.Int).SetBytes(hash[:])
}

// NewBN254FrElement creates a new BN254 scalar field element from a big.Int.
func NewBN254FrElement(bigInt *big.Int) *bn254fr.Element {
	var elm bn254fr.Element
	return elm.SetBigInt(bigInt)
}

// NewPublicWitness constructs a public witness using the provided input values.
func NewPublicWitness(inputs ...any) (witness.Witness, error) {
	w, err := witness.New(ecc.BN254.ScalarField())
	if err != nil {
		return nil, fmt.Errorf("error creating witness: %v", err)
	}

	pubInputs := make(chan any, len(inputs))
	for _, v := range inputs {
		pubInputs <- v
	}
	close(pubInputs)

	if err := w.Fill(len(inputs), 0, pubInputs); err != nil {
		return nil, fmt.Errorf("error filling witness: %v", err)
	}

	public, err := w.Public()
	if err != nil {
		return nil, fmt.Errorf("error getting public witness: %v", err)
	}

	return public, nil
}
