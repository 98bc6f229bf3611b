package masking

import (
	"regexp"
)

// MaskedPrivateKeyValue is the replacement string for a redacted PEM block.
const MaskedPrivateKeyValue = "[MASKED_PRIVATE_KEY]"

// pemBlockPattern matches an entire "-----BEGIN ... KEY-----" ...
// "-----END ... KEY-----" PEM block, the shape of an SSH/TLS private key a
// hunt step's stdout can emit (e.g. `cat ~/.ssh/id_rsa`).
var pemBlockPattern = regexp.MustCompile(`(?s)-----BEGIN [A-Z ]*PRIVATE KEY-----.*?-----END [A-Z ]*PRIVATE KEY-----`)

// PrivateKeyMasker redacts PEM private key blocks while leaving public
// keys and certificates untouched.
type PrivateKeyMasker struct{}

// Name returns the unique identifier for this masker.
func (m *PrivateKeyMasker) Name() string { return "private_key" }

// AppliesTo performs a lightweight check on whether this masker should
// process the data.
func (m *PrivateKeyMasker) AppliesTo(data string) bool {
	return pemBlockPattern.MatchString(data)
}

// Mask replaces every PEM private key block with MaskedPrivateKeyValue.
func (m *PrivateKeyMasker) Mask(data string) string {
	return pemBlockPattern.ReplaceAllString(data, MaskedPrivateKeyValue)
}
