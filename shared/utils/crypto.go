package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// LowerAlphanumeric is the alphabet of reply addresses.
const LowerAlphanumeric = "abcdefghijklmnopqrstuvwxyz0123456789"

// RandomIntBetween returns a uniformly distributed int in [min, max].
func RandomIntBetween(min, max int) int {
	if max < min {
		panic(fmt.Sprintf("invalid random range [%d, %d]", min, max))
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max-min+1)))
	if err != nil {
		panic(fmt.Sprintf("failed to generate random int: %v", err))
	}
	return min + int(n.Int64())
}

// GenerateRandomString generates a cryptographically secure random string
// using the provided charset and length
func GenerateRandomString(length int, charset string) string {
	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			panic(fmt.Sprintf("failed to generate random string: %v", err))
		}
		b[i] = charset[n.Int64()]
	}
	return string(b)
}
