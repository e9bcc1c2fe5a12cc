package password

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MinLength is the minimum accepted password length.
const MinLength = 8

const (
	alphabetUpper  = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	alphabetLower  = "abcdefghijkmnopqrstuvwxyz"
	alphabetDigit  = "23456789"
	alphabetSymbol = "!@#$%^&*-_=+?"
)

// ValidatePolicy checks plaintext against the password policy and returns
// every violated rule, so callers can present complete feedback rather than
// the first failure.
func ValidatePolicy(plaintext string) []string {
	var violations []string

	if utf8.RuneCountInString(plaintext) < MinLength {
		violations = append(violations, fmt.Sprintf("must be at least %d characters long", MinLength))
	}

	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range plaintext {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSymbol = true
		}
	}

	if !hasUpper {
		violations = append(violations, "must contain an uppercase letter")
	}
	if !hasLower {
		violations = append(violations, "must contain a lowercase letter")
	}
	if !hasDigit {
		violations = append(violations, "must contain a digit")
	}
	if !hasSymbol {
		violations = append(violations, "must contain a symbol")
	}

	return violations
}

// GenerateRandom returns a cryptographically random password of the given
// length containing at least one character of each required class. Used for
// admin-issued temporary passwords. The ambiguous characters 0/O/1/l/I are
// excluded from the alphabets.
func GenerateRandom(length int) (string, error) {
	if length < MinLength {
		return "", errors.New("requested length below policy minimum")
	}

	classes := []string{alphabetUpper, alphabetLower, alphabetDigit, alphabetSymbol}
	mixed := strings.Join(classes, "")

	out := make([]byte, length)

	// One guaranteed character per class, the rest from the mixed alphabet.
	for i := range out {
		alphabet := mixed
		if i < len(classes) {
			alphabet = classes[i]
		}
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			return "", err
		}
		out[i] = alphabet[n.Int64()]
	}

	// Shuffle so the guaranteed class characters are not positional.
	for i := len(out) - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		j := n.Int64()
		out[i], out[j] = out[j], out[i]
	}

	return string(out), nil
}
