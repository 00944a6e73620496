package types

import (
	"fmt"
	"math/big"

	errorsmod "cosmossdk.io/errors"
	bn254fr "github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/celestiaorg/zkdispatch/x/dispatcher/internal/groth16"
)

// ProofVerifier checks a succinct proof of a consensus transition from the
// trusted checkpoint to an untrusted one. It is stateless; a nil error means the
// transition is valid.
type ProofVerifier interface {
	VerifyTransition(trusted, untrusted ConsensusState, proof ZkProof) error
}

// MembershipVerifier checks proofs of (non-)membership of a value at a path in
// the counterparty state committed to by root.
type MembershipVerifier interface {
	VerifyMembership(root Root, path string, value, proof []byte) error
	VerifyNonMembership(root Root, path string, proof []byte) error
}

var (
	_ ProofVerifier      = (*Groth16TransitionVerifier)(nil)
	_ MembershipVerifier = (*Groth16MembershipVerifier)(nil)
)

// Groth16TransitionVerifier verifies BN254 groth16 proofs of consensus
// transitions. The circuit's public inputs are, in order, the trusted epoch,
// state root, height and timestamp followed by the same four fields of the
// untrusted consensus state.
type Groth16TransitionVerifier struct {
	vk groth16.VerifyingKey
}

// NewGroth16TransitionVerifier constructs a verifier from a serialized verifying key.
func NewGroth16TransitionVerifier(vkBz []byte) (*Groth16TransitionVerifier, error) {
	vk, err := groth16.NewVerifyingKey(vkBz)
	if err != nil {
		return nil, errorsmod.Wrap(ErrInvalidVerifyingKey, err.Error())
	}

	return &Groth16TransitionVerifier{vk: vk}, nil
}

// VerifyTransition implements ProofVerifier.
func (v *Groth16TransitionVerifier) VerifyTransition(trusted, untrusted ConsensusState, zkProof ZkProof) error {
	proof, err := zkProof.Groth16()
	if err != nil {
		return fmt.Errorf("decode proof: %w", err)
	}

	inputs, err := TransitionPublicInputs(trusted, untrusted)
	if err != nil {
		return err
	}

	pubWitness, err := groth16.NewPublicWitness(inputs...)
	if err != nil {
		return err
	}

	if err := groth16.VerifyProof(proof, v.vk, pubWitness); err != nil {
		return fmt.Errorf("verify proof: %w", err)
	}

	return nil
}

// TransitionPublicInputs returns the public inputs of the transition statement
// (trusted, untrusted) as BN254 scalar field elements.
func TransitionPublicInputs(trusted, untrusted ConsensusState) ([]any, error) {
	inputs := make([]any, 0, 8)
	for _, cs := range []ConsensusState{trusted, untrusted} {
		root, err := rootElement(cs.StateRoot)
		if err != nil {
			return nil, err
		}

		inputs = append(inputs,
			uint64Element(cs.Epoch),
			root,
			uint64Element(cs.Height),
			uint64Element(cs.Timestamp),
		)
	}
	return inputs, nil
}

func uint64Element(v uint64) *bn254fr.Element {
	return groth16.NewBN254FrElement(new(big.Int).SetUint64(v))
}

func rootElement(root Root) (*bn254fr.Element, error) {
	r := root.BigInt()
	if r.Cmp(bn254fr.Modulus()) >= 0 {
		return nil, fmt.Errorf("state root %s is not a canonical field element", root)
	}
	return groth16.NewBN254FrElement(r), nil
}

// Groth16MembershipVerifier verifies BN254 groth16 state inclusion proofs. The
// circuit's public inputs are the state root, HashBN254(path) and
// HashBN254(value); the value input is zero when proving absence.
type Groth16MembershipVerifier struct {
	vk groth16.VerifyingKey
}

// NewGroth16MembershipVerifier constructs a verifier from a serialized verifying key.
func NewGroth16MembershipVerifier(vkBz []byte) (*Groth16MembershipVerifier, error) {
	vk, err := groth16.NewVerifyingKey(vkBz)
	if err != nil {
		return nil, errorsmod.Wrap(ErrInvalidVerifyingKey, err.Error())
	}

	return &Groth16MembershipVerifier{vk: vk}, nil
}

// VerifyMembership implements MembershipVerifier.
func (v *Groth16MembershipVerifier) VerifyMembership(root Root, path string, value, proof []byte) error {
	if len(value) == 0 {
		return fmt.Errorf("membership value cannot be empty")
	}
	return v.verify(root, path, MembershipValue(value), proof)
}

// VerifyNonMembership implements MembershipVerifier.
func (v *Groth16MembershipVerifier) VerifyNonMembership(root Root, path string, proof []byte) error {
	return v.verify(root, path, new(big.Int), proof)
}

func (v *Groth16MembershipVerifier) verify(root Root, path string, value *big.Int, proofBz []byte) error {
	proof, err := groth16.UnmarshalProof(proofBz)
	if err != nil {
		return err
	}

	inputs, err := MembershipPublicInputs(root, path, value)
	if err != nil {
		return err
	}

	pubWitness, err := groth16.NewPublicWitness(inputs...)
	if err != nil {
		return err
	}

	if err := groth16.VerifyProof(proof, v.vk, pubWitness); err != nil {
		return fmt.Errorf("failed to verify state inclusion proof: %w", err)
	}
	return nil
}

// MembershipPublicInputs returns the public inputs of a state inclusion statement.
func MembershipPublicInputs(root Root, path string, value *big.Int) ([]any, error) {
	rootElm, err := rootElement(root)
	if err != nil {
		return nil, err
	}

	return []any{
		rootElm,
		groth16.NewBN254FrElement(groth16.HashBN254([]byte(path))),
		groth16.NewBN254FrElement(value),
	}, nil
}

// MembershipValue returns the field element a membership proof commits to for value.
func MembershipValue(value []byte) *big.Int {
	if len(value) == 0 {
		return new(big.Int)
	}
	return groth16.HashBN254(value)
}
