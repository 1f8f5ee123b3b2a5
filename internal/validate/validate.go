// Package validate holds the field validation rules shared by the auth
// endpoints and the websocket handlers. Every rejection is an
// apperr.ValidationError carrying the message the client sees.
package validate

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"dchat/internal/apperr"
)

// MaxMessageLength is the content cap in runes; the column is varchar(300).
const MaxMessageLength = 300

// Username requires a non-blank username.
func Username(username string) (string, error) {
	if strings.TrimSpace(username) == "" {
		return "", apperr.Validation("Username is a required field")
	}
	return username, nil
}

// Password requires a non-blank password.
func Password(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", apperr.Validation("Password is a required field")
	}
	return password, nil
}

// MessageContent requires non-blank content of at most MaxMessageLength runes.
// The original string is preserved; only blankness is judged on the trimmed form.
func MessageContent(content string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", apperr.Validation("Message can not be blank")
	}
	if utf8.RuneCountInString(content) > MaxMessageLength {
		return "", apperr.Validation("Message can not be longer than 300 characters")
	}
	return content, nil
}

// SearchQuery strips everything but letters and digits and requires at least
// three characters to remain. The stripped form is what gets searched, so
// "al!ce" and "alce" are the same query.
func SearchQuery(search string) (string, error) {
	var b strings.Builder
	for _, r := range search {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	stripped := b.String()
	if utf8.RuneCountInString(stripped) < 3 {
		return "", apperr.Validation("Search query can not be less than 3 alphanumeric characters.")
	}
	return stripped, nil
}

// ID accepts only non-negative identifiers.
func ID(id int64) (int64, error) {
	if id < 0 {
		return 0, apperr.Validation("Invalid id")
	}
	return id, nil
}

// Since accepts only non-negative timestamps.
func Since(since int64) (int64, error) {
	if since < 0 {
		return 0, apperr.Validation("Invalid timestamp")
	}
	return since, nil
}
