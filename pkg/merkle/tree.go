package merkle

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Allocation commitment tree. The leaf for a beneficiary binds the round
// scope, chain and schedule salt together with the allocation amount, so
// a proof from one round/schedule can never validate against another.
// Pair hashes are sorted before combining, which makes Verify independent
// of sibling left/right order.

// Leaf is one (beneficiary, allocation) pair. Amount is a base-unit
// decimal string, never a float.
type Leaf struct {
	Beneficiary string
	Amount      string
}

type Tree struct {
	levels [][][]byte          // levels[0] = leaf hashes, last level = root
	index  map[string]int      // beneficiary -> leaf position
	leaves []Leaf
}

// LeafHash computes the leaf digest for a beneficiary allocation.
func LeafHash(scopeID, chainID, salt, beneficiary, amount string) []byte {
	h := sha256.New()
	h.Write([]byte(scopeID))
	h.Write([]byte(chainID))
	h.Write([]byte(salt))
	h.Write([]byte(beneficiary))
	h.Write([]byte(amount))
	return h.Sum(nil)
}

// hashPair combines two nodes, smaller hash first.
func hashPair(a, b []byte) []byte {
	if bytes.Compare(a, b) > 0 {
		a, b = b, a
	}
	h := sha256.New()
	h.Write(a)
	h.Write(b)
	return h.Sum(nil)
}

// Build constructs the tree over the given leaves. Beneficiaries must be
// unique; an empty set is rejected.
func Build(scopeID, chainID, salt string, leaves []Leaf) (*Tree, error) {
	if len(leaves) == 0 {
		return nil, fmt.Errorf("merkle: no leaves")
	}

	index := make(map[string]int, len(leaves))
	level := make([][]byte, 0, len(leaves))
	for i, leaf := range leaves {
		if _, exists := index[leaf.Beneficiary]; exists {
			return nil, fmt.Errorf("merkle: duplicate beneficiary %s", leaf.Beneficiary)
		}
		index[leaf.Beneficiary] = i
		level = append(level, LeafHash(scopeID, chainID, salt, leaf.Beneficiary, leaf.Amount))
	}

	levels := [][][]byte{level}
	for len(level) > 1 {
		next := make([][]byte, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 < len(level) {
				next = append(next, hashPair(level[i], level[i+1]))
			} else {
				// odd node carries up unchanged
				next = append(next, level[i])
			}
		}
		levels = append(levels, next)
		level = next
	}

	return &Tree{levels: levels, index: index, leaves: leaves}, nil
}

// Root returns the tree root digest.
func (t *Tree) Root() []byte {
	return t.levels[len(t.levels)-1][0]
}

// RootHex returns the root as lowercase hex.
func (t *Tree) RootHex() string {
	return hex.EncodeToString(t.Root())
}

// Proof returns the ordered sibling path from the beneficiary's leaf to
// the root.
func (t *Tree) Proof(beneficiary string) ([][]byte, error) {
	pos, ok := t.index[beneficiary]
	if !ok {
		return nil, fmt.Errorf("merkle: beneficiary %s not in tree", beneficiary)
	}

	proof := [][]byte{}
	for _, level := range t.levels[:len(t.levels)-1] {
		sibling := pos ^ 1
		if sibling < len(level) {
			proof = append(proof, level[sibling])
		}
		pos /= 2
	}
	return proof, nil
}

// ProofHex returns the proof with each sibling hash hex-encoded.
func (t *Tree) ProofHex(beneficiary string) ([]string, error) {
	proof, err := t.Proof(beneficiary)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(proof))
	for i, sib := range proof {
		out[i] = hex.EncodeToString(sib)
	}
	return out, nil
}

// Verify recomputes the root from a leaf digest and its sibling path and
// compares it against the expected root.
func Verify(root, leaf []byte, proof [][]byte) bool {
	running := leaf
	for _, sibling := range proof {
		running = hashPair(running, sibling)
	}
	return bytes.Equal(running, root)
}

// VerifyHex is Verify over hex-encoded root and proof.
func VerifyHex(rootHex string, leaf []byte, proofHex []string) bool {
	root, err := hex.DecodeString(rootHex)
	if err != nil {
		return false
	}
	proof := make([][]byte, len(proofHex))
	for i, s := range proofHex {
		sib, err := hex.DecodeString(s)
		if err != nil {
			return false
		}
		proof[i] = sib
	}
	return Verify(root, leaf, proof)
}
