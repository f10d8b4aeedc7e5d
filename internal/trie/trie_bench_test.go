package trie

import (
	"math/rand"
	"testing"
)

func generateRandomSequences(count, maxLength int) [][]string {
	sequences := make([][]string, count)
	for i := range count {
		length := rand.Intn(maxLength) + 1
		sequence := make([]string, length)
		for j := range length {
			sequence[j] = string(rune('a' + rand.Intn(26)))
		}
		sequences[i] = sequence
	}
	return sequences
}

func BenchmarkInsert(b *testing.B) {
	sizes := []struct {
		name      string
		count     int
		maxLength int
	}{
		{"Small", 100, 5},
		{"Medium", 1000, 10},
		{"Large", 10000, 20},
	}

	for _, size := range sizes {
		b.Run(size.name, func(b *testing.B) {
			sequences := generateRandomSequences(size.count, size.maxLength)
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				trie := New()
				for j, seq := range sequences {
					trie.Insert(seq, j)
				}
			}
		})
	}
}

func BenchmarkPrefixes(b *testing.B) {
	sequences := generateRandomSequences(1000, 4)
	trie := New()
	for j, seq := range sequences {
		trie.Insert(seq, j)
	}
	queries := generateRandomSequences(100, 8)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		for _, q := range queries {
			_ = trie.Prefixes(q)
		}
	}
}
