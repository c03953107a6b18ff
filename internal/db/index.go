package db

import (
	"errors"
	"strconv"
)

// IndexFieldType enumerates supported FT index field types.
type IndexFieldType int

const (
	// IndexFieldText is a full-text (BM25-scored) field.
	IndexFieldText IndexFieldType = iota
	// IndexFieldTag is an exact-match tag field.
	IndexFieldTag
)

// IndexField describes a single field in an FT index schema.
type IndexField struct {
	Name   string
	Type   IndexFieldType
	Weight float64 // TEXT weight; 0 means server default
}

// IndexDefinition is a complete FT index definition used by FT.CREATE.
// Documents are stored as hashes under the given key prefixes.
type IndexDefinition struct {
	Name     string
	Prefixes []string
	Fields   []IndexField
}

// Validate checks that the index definition is well-formed.
func (idx *IndexDefinition) Validate() error {
	if idx.Name == "" {
		return errors.New("index name is required")
	}
	if !IsValidIdentifier(idx.Name) {
		return errors.New("index name contains invalid characters")
	}
	if len(idx.Fields) == 0 {
		return errors.New("at least one field is required")
	}

	seen := make(map[string]bool)
	for i := range idx.Fields {
		f := &idx.Fields[i]
		if f.Name == "" {
			return errors.New("field name is required at index " + strconv.Itoa(i))
		}
		if seen[f.Name] {
			return errors.New("duplicate field name: " + f.Name)
		}
		seen[f.Name] = true
	}

	return nil
}

// IsValidIdentifier returns true if s matches [a-zA-Z0-9_:-]+.
func IsValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		isSpecial := r == '_' || r == ':' || r == '-'
		if !isAlpha && !isDigit && !isSpecial {
			return false
		}
	}
	return true
}
