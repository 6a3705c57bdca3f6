// Package internal holds helpers shared by the risc16 packages.
package internal

import (
	"iter"
)

// Concat2 yields the pairs of each sequence in turn, stopping early if
// the consumer does. Used to merge the assembler equates published by the
// cpu, memory and emulator packages.
func Concat2[K any, V any](seqs ...iter.Seq2[K, V]) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, seq := range seqs {
			for key, value := range seq {
				if !yield(key, value) {
					return
				}
			}
		}
	}
}
