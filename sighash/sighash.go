// Package sighash derives Anchor discriminators: the first 8 bytes of the
// sha256 digest of a namespaced preimage ("account:<Name>" for accounts,
// "global:<snake_case_name>" for instructions).
package sighash

import (
	"crypto/sha256"
	"strings"
	"unicode"
)

// Size is the width in bytes of a derived discriminator.
const Size = 8

const (
	NamespaceAccount = "account"
	NamespaceGlobal  = "global"
)

// Sighash returns the discriminator for the given namespace and name. The
// name is used verbatim; callers that need Anchor's instruction-name
// normalization should pass SnakeCase(name).
func Sighash(namespace string, name string) []byte {
	sum := sha256.Sum256([]byte(namespace + ":" + name))
	return sum[:Size]
}

// Account returns the discriminator of a named account shape.
func Account(name string) []byte {
	return Sighash(NamespaceAccount, name)
}

// Instruction returns the discriminator of a named instruction. Anchor
// hashes the snake_case method name regardless of how the IDL spells it.
func Instruction(name string) []byte {
	return Sighash(NamespaceGlobal, SnakeCase(name))
}

// SnakeCase converts camelCase or PascalCase to snake_case, leaving names
// that are already snake_case untouched. A run of consecutive uppercase
// letters is one word segment ("setACL" becomes "set_acl", not "set_a_c_l"),
// matching Anchor's casing rule.
func SnakeCase(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && runes[i-1] != '_' {
				afterWord := unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1])
				acronymEnd := unicode.IsUpper(runes[i-1]) && i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if afterWord || acronymEnd {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
