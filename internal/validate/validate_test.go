package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"dchat/internal/apperr"
)

func TestUsername(t *testing.T) {
	req := require.New(t)

	got, err := Username("alice")
	req.NoError(err)
	req.Equal("alice", got)

	_, err = Username("")
	req.True(apperr.IsValidation(err))
	req.EqualError(err, "Username is a required field")

	_, err = Username("   ")
	req.True(apperr.IsValidation(err))
}

func TestPassword(t *testing.T) {
	req := require.New(t)

	_, err := Password("hunter2")
	req.NoError(err)

	_, err = Password("")
	req.True(apperr.IsValidation(err))
	req.EqualError(err, "Password is a required field")
}

func TestMessageContent_Boundaries(t *testing.T) {
	req := require.New(t)

	_, err := MessageContent("")
	req.True(apperr.IsValidation(err))
	req.EqualError(err, "Message can not be blank")

	_, err = MessageContent("   \t  ")
	req.True(apperr.IsValidation(err))

	exactly300 := strings.Repeat("x", 300)
	got, err := MessageContent(exactly300)
	req.NoError(err)
	req.Equal(exactly300, got)

	_, err = MessageContent(strings.Repeat("x", 301))
	req.True(apperr.IsValidation(err))
}

func TestMessageContent_CountsRunesNotBytes(t *testing.T) {
	req := require.New(t)

	// 300 multi-byte runes are within the limit even though the byte
	// length is far beyond 300.
	_, err := MessageContent(strings.Repeat("é", 300))
	req.NoError(err)

	_, err = MessageContent(strings.Repeat("é", 301))
	req.Error(err)
}

func TestSearchQuery_StripsToAlphanumerics(t *testing.T) {
	req := require.New(t)

	got, err := SearchQuery("al!ce")
	req.NoError(err)
	req.Equal("alce", got)

	got, err = SearchQuery("  bob  ")
	req.NoError(err)
	req.Equal("bob", got)

	// Strips to "b2" — two characters, rejected.
	_, err = SearchQuery(`__b__!+;'[]2`)
	req.True(apperr.IsValidation(err))
	req.EqualError(err, "Search query can not be less than 3 alphanumeric characters.")

	_, err = SearchQuery("!!")
	req.Error(err)
}

func TestIDAndSince_RejectNegatives(t *testing.T) {
	req := require.New(t)

	id, err := ID(0)
	req.NoError(err)
	req.Zero(id)

	_, err = ID(-1)
	req.True(apperr.IsValidation(err))

	since, err := Since(1234)
	req.NoError(err)
	req.Equal(int64(1234), since)

	_, err = Since(-5)
	req.True(apperr.IsValidation(err))
}
