package identity

import (
	"crypto/sha1"
	"crypto/sha256"
	"fmt"
	"strings"
)

const (
	legacyCodeGroups = 5
	code40Groups     = 10
)

// PublicCode computes the legacy 20-digit public code of a key string,
// formatted as five dot-separated groups of four digits.
func PublicCode(keyMaterial string) (string, error) {
	pub, err := ParsePublicKey(keyMaterial)
	if err != nil {
		return "", err
	}
	digest := sha1.Sum(pub)
	return digitGroups(digest[:], legacyCodeGroups), nil
}

// FormattedPublicCode40 computes the 40-digit public code of a key string,
// formatted as ten dot-separated groups of four digits. It is derived from the
// same key bytes as PublicCode but through an independent digest.
func FormattedPublicCode40(keyMaterial string) (string, error) {
	pub, err := ParsePublicKey(keyMaterial)
	if err != nil {
		return "", err
	}
	digest := sha256.Sum256(pub)
	return digitGroups(digest[:], code40Groups), nil
}

// digitGroups turns each big-endian byte pair of digest into four decimal digits.
func digitGroups(digest []byte, groups int) string {
	parts := make([]string, groups)
	for i := range groups {
		v := uint16(digest[2*i])<<8 | uint16(digest[2*i+1])
		parts[i] = fmt.Sprintf("%04d", v%10000)
	}
	return strings.Join(parts, ".")
}

// PublicIdentity groups the derived public identifiers so both code formats
// are always presented together and can be cross-checked by a user.
type PublicIdentity struct {
	PublicKey    string
	PublicCode   string
	PublicCode40 string
}

// DerivePublicIdentity computes the public identity of a key string.
func DerivePublicIdentity(keyMaterial string) (PublicIdentity, error) {
	code, err := PublicCode(keyMaterial)
	if err != nil {
		return PublicIdentity{}, err
	}
	code40, err := FormattedPublicCode40(keyMaterial)
	if err != nil {
		return PublicIdentity{}, err
	}
	return PublicIdentity{PublicKey: keyMaterial, PublicCode: code, PublicCode40: code40}, nil
}
