package tenantid

import (
	"crypto/rand"
	"fmt"
	"regexp"
)

// Length is the fixed length of a tenant identifier: one lowercase
// letter followed by 24 lowercase alphanumeric characters.
const Length = 25

// pattern matches the full identifier grammar. Anchored on both ends so
// a valid prefix or suffix inside a hostile string never passes.
var pattern = regexp.MustCompile(`^[a-z][a-z0-9]{24}$`)

// ID is a validated tenant identifier.
//
// The zero value is invalid. Construct IDs through Parse (or New for
// fixtures) so that any value of this type is safe to hand to the
// row-security layer. Components that accept an ID still re-check
// Valid() before use, since nothing prevents a caller from converting
// a raw string.
type ID string

// Parse validates s against the tenant identifier grammar and returns
// it as an ID. The check is total: it either matches the full grammar
// or fails with ErrInvalidID, there is no partial acceptance.
func Parse(s string) (ID, error) {
	if !pattern.MatchString(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	return ID(s), nil
}

// MustParse is like Parse but panics on invalid input.
// Use only in tests and static initialization.
func MustParse(s string) ID {
	id, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return id
}

const (
	alphaChars    = "abcdefghijklmnopqrstuvwxyz"
	alphaNumChars = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// New generates a random well-formed tenant identifier.
func New() ID {
	buf := make([]byte, Length)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand only fails when the OS entropy source is broken;
		// nothing sensible can be done at this layer.
		panic(fmt.Errorf("tenantid: read random source: %w", err))
	}
	out := make([]byte, Length)
	out[0] = alphaChars[int(buf[0])%len(alphaChars)]
	for i := 1; i < Length; i++ {
		out[i] = alphaNumChars[int(buf[i])%len(alphaNumChars)]
	}
	return ID(out)
}

// Valid reports whether the ID matches the identifier grammar.
func (id ID) Valid() bool {
	return pattern.MatchString(string(id))
}

// IsZero reports whether the ID is the zero value.
func (id ID) IsZero() bool {
	return id == ""
}

func (id ID) String() string {
	return string(id)
}
