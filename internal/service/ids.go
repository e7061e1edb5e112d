package service

import (
	"crypto/rand"
	"math/big"

	"github.com/google/uuid"
)

const tempPasswordAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

func newID() string {
	return uuid.NewString()
}

func newTempPassword() (string, error) {
	buf := make([]byte, 20)
	limit := big.NewInt(int64(len(tempPasswordAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		buf[i] = tempPasswordAlphabet[n.Int64()]
	}
	return string(buf), nil
}
