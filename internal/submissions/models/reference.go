package models

import (
	"crypto/rand"
	"math/big"
)

const (
	referencePrefix   = "OF-"
	referenceAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	referenceLength   = 6
)

// NewPublicReference generates a candidate public registration reference such as
// "OF-7KQ2ZB". Uniqueness is enforced by the store.
func NewPublicReference() (string, error) {
	buf := make([]byte, referenceLength)
	size := big.NewInt(int64(len(referenceAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", err
		}
		buf[i] = referenceAlphabet[n.Int64()]
	}
	return referencePrefix + string(buf), nil
}

// EnsurePublicReference assigns a reference when none is set. It reports whether
// a new one was assigned.
func (s *Submission) EnsurePublicReference(generate func() (string, error)) (bool, error) {
	if s.PublicRegistrationReference != "" {
		return false, nil
	}
	ref, err := generate()
	if err != nil {
		return false, err
	}
	s.PublicRegistrationReference = ref
	return true, nil
}
