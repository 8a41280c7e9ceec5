package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRandomCode_Format(t *testing.T) {
	req := require.New(t)
	seen := make(map[MeetingCode]struct{})
	for i := 0; i < 500; i++ {
		code, err := RandomCode()
		req.NoError(err)
		req.True(code.Valid(), "bad code %q", code)
		req.Len(string(code), 9)
		req.Equal(byte('-'), code[4])
		seen[code] = struct{}{}
	}
	// 36^8 possibilities, 500 draws must not collide in practice
	req.Len(seen, 500)
}

func TestParseCode(t *testing.T) {
	req := require.New(t)

	code, ok := ParseCode("abcd-1234")
	req.True(ok)
	req.Equal(MeetingCode("ABCD-1234"), code)

	code, ok = ParseCode("ABCD1234")
	req.True(ok)
	req.Equal(MeetingCode("ABCD-1234"), code)

	_, ok = ParseCode("ABC-123")
	req.False(ok)
	_, ok = ParseCode("ABCD-12#4")
	req.False(ok)
}

func TestNormalizeName(t *testing.T) {
	req := require.New(t)

	name, err := NormalizeName("  Alice ")
	req.NoError(err)
	req.Equal("Alice", name)

	_, err = NormalizeName("   ")
	req.ErrorIs(err, ErrNameEmpty)

	long := make([]rune, MaxNameLen+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err = NormalizeName(string(long))
	req.ErrorIs(err, ErrNameTooLong)
}
