package core

import (
	"encoding/hex"
	"strings"

	"github.com/go-crypt/x/blake2b"
)

// UnknownField is substituted for missing optional fields during
// canonicalization so downstream text shape stays stable.
const UnknownField = "UNKNOWN"

// CanonicalText builds the deterministic text representation of a
// lesson that is submitted for embedding. Identical lesson content
// always yields byte-identical text.
//
// Format: "<title> | <concept> | <validator> | Phase: <phase>"
func CanonicalText(l *Lesson) string {
	var b strings.Builder
	b.WriteString(orUnknown(l.Title))
	b.WriteString(" | ")
	b.WriteString(orUnknown(l.Concept))
	b.WriteString(" | ")
	b.WriteString(orUnknown(l.Validator))
	b.WriteString(" | Phase: ")
	b.WriteString(orUnknown(l.Phase))
	return b.String()
}

// ContentHash returns a hex-encoded BLAKE2b-128 digest of text.
// Cache entries store the hash of the canonical text they were
// generated from, so a change in canonicalization is detectable as a
// stale entry rather than silently served.
func ContentHash(text string) string {
	h, _ := blake2b.New(16, nil)
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

func orUnknown(s string) string {
	if s == "" {
		return UnknownField
	}
	return s
}
