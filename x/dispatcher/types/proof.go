package types

import (
	"math/big"

	"github.com/celestiaorg/zkdispatch/x/dispatcher/internal/groth16"
)

// ZkProof is a succinct groth16 proof in affine coordinates. piB uses the EVM
// precompile ordering of the G2 coordinates (imaginary part first).
type ZkProof struct {
	A [2]*big.Int    `json:"piA"`
	B [2][2]*big.Int `json:"piB"`
	C [2]*big.Int    `json:"piC"`
}

// NewZkProofFromGroth16 converts a gnark BN254 proof into its coordinate form.
func NewZkProofFromGroth16(proof *groth16.Proof) ZkProof {
	a, b, c := groth16.Coordinates(proof)
	return ZkProof{A: a, B: b, C: c}
}

// Groth16 converts the coordinates back into a gnark BN254 proof, rejecting
// non-canonical coordinates and points outside the prime subgroup.
func (p ZkProof) Groth16() (*groth16.Proof, error) {
	return groth16.NewProof(p.A, p.B, p.C)
}

// Proof is a membership or non-membership proof against the counterparty state
// root trusted at Height.
type Proof struct {
	Height uint64 `json:"height"`
	Proof  []byte `json:"proof"`
}

// NewProof creates a new Proof instance.
func NewProof(height uint64, proof []byte) Proof {
	return Proof{Height: height, Proof: proof}
}
