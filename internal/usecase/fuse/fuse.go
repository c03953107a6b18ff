// Package fuse merges per-query candidate lists with Reciprocal Rank Fusion.
package fuse

import (
	"sort"

	"github.com/localseek/localseek/internal/domain"
)

// rrfK is the Reciprocal Rank Fusion constant (standard value from Cormack et al. 2009).
const rrfK = 60

// Fuse merges the per-query result lists into one deduplicated ordering.
// Lists must be in fixed query order so the fused order is deterministic
// regardless of which search finished first.
//
// The per-query rank of each stream position is approximated as
// i mod (total/queryCount + 1) + 1 over the concatenated stream, rather
// than tracked per source list. Candidates keep their first-seen text
// fields and lexical score; the RRF score only decides ordering.
func Fuse(lists [][]domain.Candidate, queryCount, limit int) []domain.Candidate {
	stream := flatten(lists)
	if len(stream) == 0 {
		return nil
	}
	if queryCount <= 1 {
		return dedupe(stream, limit)
	}

	window := len(stream)/queryCount + 1

	type scored struct {
		cand  domain.Candidate
		score float64
	}
	acc := make(map[string]*scored, len(stream))
	order := make([]string, 0, len(stream))

	for i, c := range stream {
		approxRank := i%window + 1
		s := 1.0 / float64(rrfK+approxRank)
		if e, ok := acc[c.ID()]; ok {
			e.score += s
		} else {
			acc[c.ID()] = &scored{cand: c, score: s}
			order = append(order, c.ID())
		}
	}

	out := make([]domain.Candidate, 0, len(order))
	for _, id := range order {
		out = append(out, acc[id].cand)
	}
	// Stable: ties keep first-seen order.
	sort.SliceStable(out, func(i, j int) bool {
		return acc[out[i].ID()].score > acc[out[j].ID()].score
	})

	return truncate(out, limit)
}

func flatten(lists [][]domain.Candidate) []domain.Candidate {
	var n int
	for _, l := range lists {
		n += len(l)
	}
	out := make([]domain.Candidate, 0, n)
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}

// dedupe keeps the first occurrence of each identity, preserving order.
func dedupe(stream []domain.Candidate, limit int) []domain.Candidate {
	seen := make(map[string]bool, len(stream))
	out := make([]domain.Candidate, 0, len(stream))
	for _, c := range stream {
		if seen[c.ID()] {
			continue
		}
		seen[c.ID()] = true
		out = append(out, c)
	}
	return truncate(out, limit)
}

func truncate(list []domain.Candidate, limit int) []domain.Candidate {
	if limit > 0 && len(list) > limit {
		return list[:limit]
	}
	return list
}
