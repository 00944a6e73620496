package types

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/ethereum/go-ethereum/trie"
)

var _ MembershipVerifier = MPTMembershipVerifier{}

// MPTMembershipVerifier verifies Merkle-Patricia-trie proofs produced by an EVM
// counterparty. Values are stored under keccak256(path) and proofs are the RLP
// encoded list of trie nodes on the path from the root.
type MPTMembershipVerifier struct{}

// VerifyMembership implements MembershipVerifier.
func (MPTMembershipVerifier) VerifyMembership(root Root, path string, value, proof []byte) error {
	got, err := VerifyMerklePatriciaTrieProof(root, MPTKey(path), proof)
	if err != nil {
		return err
	}
	if got == nil {
		return fmt.Errorf("key %s is absent from the trie", path)
	}
	if !bytes.Equal(got, value) {
		return fmt.Errorf("value mismatch for %s: expected %x, got %x", path, value, got)
	}
	return nil
}

// VerifyNonMembership implements MembershipVerifier.
func (MPTMembershipVerifier) VerifyNonMembership(root Root, path string, proof []byte) error {
	got, err := VerifyMerklePatriciaTrieProof(root, MPTKey(path), proof)
	if err != nil {
		return err
	}
	if got != nil {
		return fmt.Errorf("key %s is present in the trie", path)
	}
	return nil
}

// MPTKey is the trie key under which the value of path is stored.
func MPTKey(path string) []byte {
	return crypto.Keccak256([]byte(path))
}

// VerifyMerklePatriciaTrieProof returns the value proven at key, or nil when the
// proof shows the key is absent.
func VerifyMerklePatriciaTrieProof(root Root, key, proof []byte) ([]byte, error) {
	var nodes [][]byte
	if err := rlp.DecodeBytes(proof, &nodes); err != nil {
		return nil, fmt.Errorf("failed to decode proof: %w", err)
	}

	proofDB, err := ReconstructProofDB(nodes)
	if err != nil {
		return nil, err
	}

	return trie.VerifyProof(common.Hash(root), key, proofDB)
}

// ReconstructProofDB inserts every proof node into an in-memory database keyed by its hash.
func ReconstructProofDB(nodes [][]byte) (ethdb.Database, error) {
	proofDB := rawdb.NewMemoryDatabase()
	for _, node := range nodes {
		if err := proofDB.Put(crypto.Keccak256(node), node); err != nil {
			return nil, fmt.Errorf("failed to insert proof node: %w", err)
		}
	}
	return proofDB, nil
}
