package session

import (
	"crypto/rand"
	"strings"
)

// codeCharset omits ambiguous characters (I, O, 0, 1).
const codeCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NormalizeCode canonicalizes a submitted attendance code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// generateCode returns a random attendance code of n characters.
func generateCode(n int) (string, error) {
	if n < 4 {
		n = 4
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = codeCharset[int(b)%len(codeCharset)]
	}
	return string(buf), nil
}
