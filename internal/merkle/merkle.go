// Package merkle reduces a full binary tree of 32-byte leaves the same way the
// on-chain MerkleTreeUtils contract does: every parent is keccak256(left ‖ right).
package merkle

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ErrInvalidLeafCount is returned when the leaf count is zero or not a power of two.
var ErrInvalidLeafCount = errors.New("merkle: leaf count must be a non-zero power of two")

// Root returns the root of the tree built over leaves. A single leaf is its own root.
func Root(leaves []common.Hash) (common.Hash, error) {
	if !IsPowerOfTwo(len(leaves)) {
		return common.Hash{}, fmt.Errorf("%w: got %d", ErrInvalidLeafCount, len(leaves))
	}

	level := make([]common.Hash, len(leaves))
	copy(level, leaves)

	for len(level) > 1 {
		next := level[:len(level)/2]
		for i := range next {
			next[i] = Parent(level[2*i], level[2*i+1])
		}
		level = next
	}

	return level[0], nil
}

// Parent hashes two sibling nodes.
func Parent(left, right common.Hash) common.Hash {
	return crypto.Keccak256Hash(left.Bytes(), right.Bytes())
}

func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
