package edm

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

var errInvalidNumber = errors.New("invalid numeric literal")

// integralRank orders the integral types by width. Byte and SByte share a rank
// but are not assignable to each other.
func integralRank(t *PrimitiveType) int {
	switch t.kind {
	case KindByte, KindSByte:
		return 1
	case KindInt16:
		return 2
	case KindInt32:
		return 3
	case KindInt64:
		return 4
	}
	return 0
}

// IsIntegral reports whether t is Byte, SByte, Int16, Int32 or Int64.
func (t *PrimitiveType) IsIntegral() bool {
	return integralRank(t) > 0
}

// IsFloating reports whether t is Single or Double.
func (t *PrimitiveType) IsFloating() bool {
	return t.kind == KindSingle || t.kind == KindDouble
}

// IsNumeric reports whether t is an integral, floating or Decimal type.
func (t *PrimitiveType) IsNumeric() bool {
	return t.IsIntegral() || t.IsFloating() || t.kind == KindDecimal
}

// IsAssignableFrom reports whether a value of type src may be passed where t
// is expected without an explicit conversion. The null type is assignable to
// every type.
func (t *PrimitiveType) IsAssignableFrom(src *PrimitiveType) bool {
	if t == src || src.kind == KindNull {
		return true
	}
	switch {
	case t.IsIntegral() && src.IsIntegral():
		if integralRank(src) == integralRank(t) {
			return false
		}
		return integralRank(src) < integralRank(t)
	case t.kind == KindSingle:
		return src.IsIntegral()
	case t.kind == KindDouble:
		return src.IsIntegral() || src.kind == KindSingle
	case t.kind == KindDecimal:
		return src.IsIntegral()
	}
	return false
}

// Promote returns the result type of an arithmetic operation over a and b.
// Integral operands widen to at least Int32; Decimal combines only with
// integral and Decimal operands.
func Promote(a, b *PrimitiveType) (*PrimitiveType, bool) {
	if !a.IsNumeric() || !b.IsNumeric() {
		return nil, false
	}
	switch {
	case a.kind == KindDecimal || b.kind == KindDecimal:
		if a.IsFloating() || b.IsFloating() {
			return nil, false
		}
		return Decimal, true
	case a.kind == KindDouble || b.kind == KindDouble:
		return Double, true
	case a.kind == KindSingle || b.kind == KindSingle:
		return Single, true
	case a.kind == KindInt64 || b.kind == KindInt64:
		return Int64, true
	}
	return Int32, true
}

func trimSuffixFold(text string, suffix byte) string {
	if n := len(text); n > 0 && (text[n-1] == suffix || text[n-1] == suffix-'a'+'A') {
		return text[:n-1]
	}
	return text
}

func parseByteLiteral(text string) (interface{}, error) {
	v, err := strconv.ParseUint(text, 10, 8)
	if err != nil {
		return nil, err
	}
	return uint8(v), nil
}

func parseSByteLiteral(text string) (interface{}, error) {
	v, err := strconv.ParseInt(text, 10, 8)
	if err != nil {
		return nil, err
	}
	return int8(v), nil
}

func parseInt16Literal(text string) (interface{}, error) {
	v, err := strconv.ParseInt(text, 10, 16)
	if err != nil {
		return nil, err
	}
	return int16(v), nil
}

func parseInt32Literal(text string) (interface{}, error) {
	v, err := strconv.ParseInt(text, 10, 32)
	if err != nil {
		return nil, err
	}
	return int32(v), nil
}

func parseInt64Literal(text string) (interface{}, error) {
	v, err := strconv.ParseInt(trimSuffixFold(text, 'l'), 10, 64)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// parseSpecialFloat recognises INF, -INF and NaN.
func parseSpecialFloat(text string) (float64, bool) {
	switch text {
	case "INF":
		return math.Inf(1), true
	case "-INF":
		return math.Inf(-1), true
	case "NaN":
		return math.NaN(), true
	}
	return 0, false
}

func parseSingleLiteral(text string) (interface{}, error) {
	text = trimSuffixFold(text, 'f')
	if v, ok := parseSpecialFloat(text); ok {
		return float32(v), nil
	}
	if !looksNumeric(text) {
		return nil, errInvalidNumber
	}
	v, err := strconv.ParseFloat(text, 32)
	if err != nil {
		return nil, err
	}
	return float32(v), nil
}

func parseDoubleLiteral(text string) (interface{}, error) {
	if v, ok := parseSpecialFloat(text); ok {
		return v, nil
	}
	text = trimSuffixFold(text, 'd')
	if !looksNumeric(text) {
		return nil, errInvalidNumber
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// looksNumeric rejects the spellings strconv.ParseFloat accepts beyond the
// filter grammar (hex floats, "inf", "infinity", underscores).
func looksNumeric(text string) bool {
	if text == "" {
		return false
	}
	return !strings.ContainsAny(text, "xXpPnNiI_")
}
