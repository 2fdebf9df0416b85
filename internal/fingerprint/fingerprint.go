// Package fingerprint derives the deterministic cache key for a generation
// request. Two requests with identical semantic fields always share a
// fingerprint; any field difference yields a different one. Collisions would
// serve one subject's artifact to another, so the digest is SHA-256 rather
// than anything weaker.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"animator/internal/domain"
)

// scheme versions the canonical encoding; bump it if the field set changes so
// stale cache entries become unreachable instead of wrong.
const scheme = "v1"

// Derive computes the fingerprint for req. Pure and total: no side effects,
// no failure modes.
func Derive(req domain.Request) string {
	var b strings.Builder
	writeField(&b, scheme)
	writeField(&b, string(req.Kind))
	writeField(&b, req.SubjectID)
	writeField(&b, req.InputRef)
	writeField(&b, req.OverlayRef)
	writeField(&b, strconv.Itoa(len(req.Actions)))
	for _, a := range req.Actions {
		writeField(&b, string(a))
	}
	writeField(&b, strconv.Itoa(req.DurationSeconds))
	writeField(&b, req.AspectRatio)

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// writeField length-prefixes each field so concatenation is unambiguous: a
// value containing the separator cannot collide with a differently split
// field set.
func writeField(b *strings.Builder, v string) {
	b.WriteString(strconv.Itoa(len(v)))
	b.WriteByte(':')
	b.WriteString(v)
	b.WriteByte('|')
}
