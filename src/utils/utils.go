package utils

import (
	"crypto/rand"
	"math/big"
	"unsafe"
)

// B2S converts a byte slice to a string without a copy.
func B2S(b []byte) string {
	return *(*string)(unsafe.Pointer(&b))
}

// S2B converts a string to a byte slice without a copy. The result must not
// be mutated.
func S2B(s string) []byte {
	return *(*[]byte)(unsafe.Pointer(
		&struct {
			string
			Cap int
		}{s, len(s)},
	))
}

const secretRunes = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// GenerateRandomString returns a uniformly random alphanumeric string of
// length n.
func GenerateRandomString(n int) (string, error) {
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(secretRunes))))
		if err != nil {
			return "", err
		}
		b[i] = secretRunes[idx.Int64()]
	}
	return B2S(b), nil
}
