// Package readstate holds the pure aggregation folds over read-trackable
// conversations. Dedup and signal dispatch stay with the caller.
package readstate

import "github.com/vedran77/pulsedesk/internal/domain"

// Read reports whether every conversation is read or muted. An empty
// collection is read.
func Read[T domain.Conversation](convs []T) bool {
	for _, c := range convs {
		if !c.IsRead() && !c.IsMuted() {
			return false
		}
	}
	return true
}

// MentionCount sums the mention counts over convs.
func MentionCount[T domain.Conversation](convs []T) int {
	total := 0
	for _, c := range convs {
		total += c.Mentions()
	}
	return total
}
