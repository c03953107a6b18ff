package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// QueryFingerprint returns a stable hash of the normalized query text.
// Normalization is lower-casing plus whitespace trimming, so trivially
// different spellings of the same query share cache entries.
func QueryFingerprint(query string) string {
	normalized := strings.ToLower(strings.TrimSpace(query))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// Fingerprinter derives a cache identity for a candidate document.
// The rerank cache is keyed by (query fingerprint, document fingerprint);
// swapping this function changes what "same document" means to the cache
// without touching the cache contract.
type Fingerprinter func(c Candidate) string

// SnippetFingerprint hashes the candidate's snippet text. Cheap, but entries
// silently miss if snippet generation changes; see StableFingerprint.
func SnippetFingerprint(c Candidate) string {
	sum := sha256.Sum256([]byte(c.Snippet))
	return hex.EncodeToString(sum[:])
}

// StableFingerprint hashes the candidate's identity plus snippet, surviving
// snippet-window changes for the identity portion of the key.
func StableFingerprint(c Candidate) string {
	sum := sha256.Sum256([]byte(c.Collection + "\x00" + c.Path + "\x00" + c.Snippet))
	return hex.EncodeToString(sum[:])
}
