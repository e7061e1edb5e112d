package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Cost applies to account passwords and one-time codes alike. Tests lower it.
var Cost = bcrypt.DefaultCost

var ErrMismatch = errors.New("password mismatch")

func Hash(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), Cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Compare returns ErrMismatch for a wrong secret and the bcrypt error for a
// malformed hash.
func Compare(hash, plain string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrMismatch
	}
	return err
}
