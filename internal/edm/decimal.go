package edm

import (
	"github.com/shopspring/decimal"
)

func parseDecimalLiteral(text string) (interface{}, error) {
	text = trimSuffixFold(text, 'm')
	if !looksNumeric(text) {
		return nil, errInvalidNumber
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return nil, err
	}
	return d, nil
}
