// utils/random.go
package utils

import (
	"crypto/rand"
	"math/big"
)

const alphanum = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateRandomString returns an uppercase alphanumeric string of length n,
// used for auto-generated SKU codes.
func GenerateRandomString(n int) string {
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphanum))))
		if err != nil {
			b[i] = alphanum[0]
			continue
		}
		b[i] = alphanum[idx.Int64()]
	}
	return string(b)
}
