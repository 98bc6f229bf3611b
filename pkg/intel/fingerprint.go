package intel

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"sort"
	"strings"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// normalizeTitle lowercases and collapses whitespace so near-duplicate
// titles ("SSH  Weak Cipher" vs "ssh weak cipher") fingerprint identically.
func normalizeTitle(title string) string {
	title = strings.ToLower(title)
	title = whitespaceRe.ReplaceAllString(title, " ")
	return strings.TrimSpace(title)
}

// computeFingerprint derives Finding.fingerprint (spec §4.6: "sha256(kind,
// normalized title, stable evidence subset)"). tags are sorted before
// hashing so upserts that only reorder tags still collide on the same
// fingerprint.
func computeFingerprint(kind, title string, tags []string) string {
	sorted := append([]string{}, tags...)
	sort.Strings(sorted)

	h := sha256.New()
	h.Write([]byte(kind))
	h.Write([]byte{0})
	h.Write([]byte(normalizeTitle(title)))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(sorted, ",")))
	return hex.EncodeToString(h.Sum(nil))
}
