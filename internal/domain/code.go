package domain

import (
	"crypto/rand"
	"math/big"
	"regexp"
)

const (
	codeAlphabet  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength    = 8
	codeSeparator = '-'
)

var codePattern = regexp.MustCompile(`^[A-Z0-9]{4}-[A-Z0-9]{4}$`)

// MeetingCode is the human-shareable meeting identifier, e.g. "ABCD-1234".
type MeetingCode string

func (c MeetingCode) Valid() bool { return codePattern.MatchString(string(c)) }

// CodeGenerator produces candidate meeting codes. Uniqueness is checked by the store.
type CodeGenerator func() (MeetingCode, error)

// RandomCode draws 8 characters from A-Z0-9 and inserts the separator after the fourth.
func RandomCode() (MeetingCode, error) {
	buf := make([]byte, 0, codeLength+1)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := 0; i < codeLength; i++ {
		if i == codeLength/2 {
			buf = append(buf, codeSeparator)
		}
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf = append(buf, codeAlphabet[n.Int64()])
	}
	return MeetingCode(buf), nil
}

// ParseCode accepts lower case and missing separator, as users type codes by hand.
func ParseCode(s string) (MeetingCode, bool) {
	out := make([]byte, 0, codeLength+1)
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch >= 'a' && ch <= 'z':
			ch -= 'a' - 'A'
		case ch == codeSeparator || ch == ' ':
			continue
		}
		out = append(out, ch)
	}
	if len(out) != codeLength {
		return "", false
	}
	code := MeetingCode(string(out[:4]) + string(codeSeparator) + string(out[4:]))
	return code, code.Valid()
}
