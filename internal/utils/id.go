package utils

import (
	"crypto/rand"
	"math/big"
)

const alnum = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// RandomAlnum returns n characters drawn from [a-zA-Z0-9] using crypto/rand.
func RandomAlnum(n int) string {
	buf := make([]byte, n)
	max := big.NewInt(int64(len(alnum)))
	for i := range buf {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic("failed to read random bytes: " + err.Error())
		}
		buf[i] = alnum[idx.Int64()]
	}
	return string(buf)
}

// NewID generates an entity id in the gateway's prefix_suffix form,
// e.g. pay_9hJ2kL0xQwErTyUi.
func NewID(prefix string) string {
	return prefix + "_" + RandomAlnum(16)
}

// NewWebhookSecret generates a merchant webhook signing secret.
func NewWebhookSecret() string {
	return "whsec_" + RandomAlnum(16)
}
