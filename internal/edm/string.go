package edm

import (
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var errMissingQuotes = errors.New("literal must be enclosed in single quotes")

// unquote strips an optional type prefix and the enclosing single quotes,
// e.g. datetime'2020-01-01' -> 2020-01-01.
func unquote(text string) (string, error) {
	start := strings.IndexByte(text, '\'')
	if start < 0 || len(text) < start+2 || text[len(text)-1] != '\'' {
		return "", errMissingQuotes
	}
	return text[start+1 : len(text)-1], nil
}

func parseStringLiteral(text string) (interface{}, error) {
	if len(text) < 2 || text[0] != '\'' {
		return nil, errMissingQuotes
	}
	s, err := unquote(text)
	if err != nil {
		return nil, err
	}
	return s, nil
}

var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

func parseDateTimeLiteral(text string) (interface{}, error) {
	body, err := unquote(text)
	if err != nil {
		return nil, err
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, body); err == nil {
			return t.UTC(), nil
		}
	}
	return nil, errors.New("unrecognised date/time format")
}

func parseGuidLiteral(text string) (interface{}, error) {
	body, err := unquote(text)
	if err != nil {
		return nil, err
	}
	// uuid.Parse also accepts urn: and braced forms; the literal grammar does not.
	if len(body) != 36 {
		return nil, errors.New("guid must be in 8-4-4-4-12 form")
	}
	id, err := uuid.Parse(body)
	if err != nil {
		return nil, err
	}
	return id, nil
}

func parseBinaryLiteral(text string) (interface{}, error) {
	var digits string
	if len(text) >= 2 && text[0] == '0' && (text[1] == 'x' || text[1] == 'X') {
		digits = text[2:]
	} else {
		body, err := unquote(text)
		if err != nil {
			return nil, err
		}
		digits = body
	}
	if len(digits)%2 != 0 {
		return nil, errors.New("binary literal needs an even number of hex digits")
	}
	b, err := hex.DecodeString(digits)
	if err != nil {
		return nil, err
	}
	return b, nil
}
