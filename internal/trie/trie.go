// Package trie indexes values by word sequences so that every value whose
// sequence is a prefix of some input can be found in one walk.
package trie

import (
	"sort"
	"strconv"
	"strings"
)

/*
Arena-based Trie

Nodes live in one slice and refer to their children by index. A value is
stored on the node its sequence ends at, so an empty sequence stores the value
on the root and every lookup returns it.
*/

// NodeIndex is the position of a node in the arena.
type NodeIndex int

// Arena stores all trie nodes.
type Arena struct {
	nodes []arenaNode
}

type arenaNode struct {
	// children maps a word to the index of the child node.
	children map[string]NodeIndex
	// values holds the values whose sequence ends here, in insertion order.
	values []int
}

// NewArena creates an arena holding only the root node.
func NewArena() *Arena {
	arena := &Arena{
		nodes: make([]arenaNode, 0, 64),
	}
	arena.nodes = append(arena.nodes, arenaNode{children: make(map[string]NodeIndex)})
	return arena
}

func (a *Arena) newNode() NodeIndex {
	idx := NodeIndex(len(a.nodes))
	a.nodes = append(a.nodes, arenaNode{children: make(map[string]NodeIndex)})
	return idx
}

// Insert stores value under sequence.
func (a *Arena) Insert(sequence []string, value int) {
	current := NodeIndex(0)

	for _, part := range sequence {
		node := &a.nodes[current]
		childIdx, exists := node.children[part]
		if !exists {
			childIdx = a.newNode()
			// newNode may grow the slice, so index again
			a.nodes[current].children[part] = childIdx
		}
		current = childIdx
	}

	a.nodes[current].values = append(a.nodes[current].values, value)
}

// Prefixes returns the values of every sequence that is a prefix of words,
// in ascending order.
func (a *Arena) Prefixes(words []string) []int {
	var out []int
	current := NodeIndex(0)
	out = append(out, a.nodes[current].values...)

	for _, word := range words {
		next, ok := a.nodes[current].children[word]
		if !ok {
			break
		}
		current = next
		out = append(out, a.nodes[current].values...)
	}

	sort.Ints(out)
	return out
}

// Equal checks whether two tries are identical in structure and content.
func (a *Arena) Equal(b *Arena) bool {
	if len(a.nodes) != len(b.nodes) {
		return false
	}
	return a.equalNodes(NodeIndex(0), b, NodeIndex(0))
}

func (a *Arena) equalNodes(aIdx NodeIndex, b *Arena, bIdx NodeIndex) bool {
	nodeA := a.nodes[aIdx]
	nodeB := b.nodes[bIdx]

	if len(nodeA.values) != len(nodeB.values) || len(nodeA.children) != len(nodeB.children) {
		return false
	}
	for i := range nodeA.values {
		if nodeA.values[i] != nodeB.values[i] {
			return false
		}
	}

	for key, childA := range nodeA.children {
		childB, exists := nodeB.children[key]
		if !exists || !a.equalNodes(childA, b, childB) {
			return false
		}
	}
	return true
}

// String renders the trie as word(children) groups with the values stored on
// a node in braces, e.g. `{2}go({0,1}home({3}))`.
func (a *Arena) String() string {
	return a.stringNode(NodeIndex(0))
}

func (a *Arena) stringNode(idx NodeIndex) string {
	node := a.nodes[idx]
	var sb strings.Builder

	if len(node.values) > 0 {
		sb.WriteString("{")
		for i, v := range node.values {
			if i > 0 {
				sb.WriteString(",")
			}
			sb.WriteString(strconv.Itoa(v))
		}
		sb.WriteString("}")
	}

	keys := make([]string, 0, len(node.children))
	for key := range node.children {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		sb.WriteString(key)
		sb.WriteString("(")
		sb.WriteString(a.stringNode(node.children[key]))
		sb.WriteString(")")
	}
	return sb.String()
}

// Trie is an index of int values by word sequence. It is not safe for
// concurrent writes; concurrent reads after the last Insert are fine.
type Trie struct {
	arena *Arena
}

// New returns an empty Trie.
func New() *Trie {
	return &Trie{arena: NewArena()}
}

// Insert stores value under sequence.
func (t *Trie) Insert(sequence []string, value int) {
	t.arena.Insert(sequence, value)
}

// Prefixes returns the values of every inserted sequence that is a prefix of
// words, in ascending order.
func (t *Trie) Prefixes(words []string) []int {
	return t.arena.Prefixes(words)
}

// Equal checks whether two tries are identical in structure and content.
func (t *Trie) Equal(other *Trie) bool {
	return t.arena.Equal(other.arena)
}

func (t *Trie) String() string {
	return t.arena.String()
}
