package exprlang

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/expr-lang/expr"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

var errDivisionByZero = errors.New("division by zero")

// helper is a function exposed to rendered predicates.
type helper struct {
	name  string
	arity int
	fn    func(args []any) (any, error)
}

// helpers lists every function a rendered predicate may call besides the
// expr-lang builtins.
var helpers = []helper{
	{"decimal", 1, func(a []any) (any, error) { return toDecimal(a[0]) }},
	{"datetime", 1, func(a []any) (any, error) { return toTime(a[0]) }},
	{"guid", 1, func(a []any) (any, error) { return toUUID(a[0]) }},
	{"binary", 1, func(a []any) (any, error) { return hex.DecodeString(cast.ToString(a[0])) }},
	{"inf", 1, func(a []any) (any, error) { return math.Inf(cast.ToInt(a[0])), nil }},
	{"nan", 0, func([]any) (any, error) { return math.NaN(), nil }},

	{"is_null", 1, func(a []any) (any, error) { return isNil(a[0]), nil }},
	{"strcmp", 2, strcmp},
	{"datetime_cmp", 2, dateTimeCmp},
	{"guid_equal", 2, guidEqual},
	{"binary_equal", 2, binaryEqual},

	{"endswith", 2, stringPredicate(strings.HasSuffix)},
	{"startswith", 2, stringPredicate(strings.HasPrefix)},
	{"substringof", 2, stringPredicate(func(a, b string) bool { return strings.Contains(b, a) })},
	{"indexof", 2, indexOf},
	{"substring", -1, substring},
	{"length", 1, func(a []any) (any, error) { return utf8.RuneCountInString(cast.ToString(a[0])), nil }},

	{"year", 1, datePart(func(t time.Time) int { return t.Year() })},
	{"month", 1, datePart(func(t time.Time) int { return int(t.Month()) })},
	{"day", 1, datePart(func(t time.Time) int { return t.Day() })},
	{"hour", 1, datePart(func(t time.Time) int { return t.Hour() })},
	{"minute", 1, datePart(func(t time.Time) int { return t.Minute() })},
	{"second", 1, datePart(func(t time.Time) int { return t.Second() })},

	{"idiv", 2, integerDivide},
	{"imod", 2, integerModulo},
	{"fmod", 2, func(a []any) (any, error) { return math.Mod(cast.ToFloat64(a[0]), cast.ToFloat64(a[1])), nil }},

	{"decimal_add", 2, decimalBinary(func(x, y decimal.Decimal) (decimal.Decimal, error) { return x.Add(y), nil })},
	{"decimal_sub", 2, decimalBinary(func(x, y decimal.Decimal) (decimal.Decimal, error) { return x.Sub(y), nil })},
	{"decimal_mul", 2, decimalBinary(func(x, y decimal.Decimal) (decimal.Decimal, error) { return x.Mul(y), nil })},
	{"decimal_div", 2, decimalBinary(func(x, y decimal.Decimal) (decimal.Decimal, error) {
		if y.IsZero() {
			return decimal.Decimal{}, errDivisionByZero
		}
		return x.Div(y), nil
	})},
	{"decimal_mod", 2, decimalBinary(func(x, y decimal.Decimal) (decimal.Decimal, error) {
		if y.IsZero() {
			return decimal.Decimal{}, errDivisionByZero
		}
		return x.Mod(y), nil
	})},
	{"decimal_cmp", 2, decimalCmp},
	{"decimal_neg", 1, decimalUnary(decimal.Decimal.Neg)},
	// OData rounds half away from zero, which is Decimal.Round.
	{"decimal_round", 1, decimalUnary(func(d decimal.Decimal) decimal.Decimal { return d.Round(0) })},
	{"decimal_ceiling", 1, decimalUnary(decimal.Decimal.Ceil)},
	{"decimal_floor", 1, decimalUnary(decimal.Decimal.Floor)},
}

// helperOptions registers helpers with the expr-lang compiler. Arity is
// checked here so helper bodies may index their arguments directly.
func helperOptions() []expr.Option {
	options := make([]expr.Option, 0, len(helpers))
	for _, h := range helpers {
		h := h
		options = append(options, expr.Function(h.name, func(params ...any) (any, error) {
			if h.arity >= 0 && len(params) != h.arity {
				return nil, fmt.Errorf("%s requires %d arguments, got %d", h.name, h.arity, len(params))
			}
			return h.fn(params)
		}))
	}
	return options
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

func strcmp(a []any) (any, error) {
	x, err := cast.ToStringE(a[0])
	if err != nil {
		return nil, err
	}
	y, err := cast.ToStringE(a[1])
	if err != nil {
		return nil, err
	}
	return strings.Compare(x, y), nil
}

func stringPredicate(pred func(a, b string) bool) func([]any) (any, error) {
	return func(a []any) (any, error) {
		return pred(cast.ToString(a[0]), cast.ToString(a[1])), nil
	}
}

// indexOf returns the rune index of the first occurrence, or -1.
func indexOf(a []any) (any, error) {
	s, sub := cast.ToString(a[0]), cast.ToString(a[1])
	i := strings.Index(s, sub)
	if i < 0 {
		return -1, nil
	}
	return utf8.RuneCountInString(s[:i]), nil
}

// substring takes (s, start) or (s, start, length) in runes and clamps both
// bounds to the string.
func substring(a []any) (any, error) {
	if len(a) != 2 && len(a) != 3 {
		return nil, fmt.Errorf("substring requires 2 or 3 arguments, got %d", len(a))
	}
	runes := []rune(cast.ToString(a[0]))
	start := clamp(cast.ToInt(a[1]), 0, len(runes))
	end := len(runes)
	if len(a) == 3 {
		end = clamp(start+cast.ToInt(a[2]), start, len(runes))
	}
	return string(runes[start:end]), nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func datePart(part func(time.Time) int) func([]any) (any, error) {
	return func(a []any) (any, error) {
		t, err := toTime(a[0])
		if err != nil {
			return nil, err
		}
		return part(t), nil
	}
}

func dateTimeCmp(a []any) (any, error) {
	x, err := toTime(a[0])
	if err != nil {
		return nil, err
	}
	y, err := toTime(a[1])
	if err != nil {
		return nil, err
	}
	return x.Compare(y), nil
}

func guidEqual(a []any) (any, error) {
	x, err := toUUID(a[0])
	if err != nil {
		return nil, err
	}
	y, err := toUUID(a[1])
	if err != nil {
		return nil, err
	}
	return x == y, nil
}

func binaryEqual(a []any) (any, error) {
	x, err := toBytes(a[0])
	if err != nil {
		return nil, err
	}
	y, err := toBytes(a[1])
	if err != nil {
		return nil, err
	}
	return bytes.Equal(x, y), nil
}

// integerDivide truncates toward zero.
func integerDivide(a []any) (any, error) {
	x, err := cast.ToInt64E(a[0])
	if err != nil {
		return nil, err
	}
	y, err := cast.ToInt64E(a[1])
	if err != nil {
		return nil, err
	}
	if y == 0 {
		return nil, errDivisionByZero
	}
	return x / y, nil
}

func integerModulo(a []any) (any, error) {
	x, err := cast.ToInt64E(a[0])
	if err != nil {
		return nil, err
	}
	y, err := cast.ToInt64E(a[1])
	if err != nil {
		return nil, err
	}
	if y == 0 {
		return nil, errDivisionByZero
	}
	return x % y, nil
}

func decimalBinary(op func(x, y decimal.Decimal) (decimal.Decimal, error)) func([]any) (any, error) {
	return func(a []any) (any, error) {
		x, err := toDecimal(a[0])
		if err != nil {
			return nil, err
		}
		y, err := toDecimal(a[1])
		if err != nil {
			return nil, err
		}
		return op(x, y)
	}
}

func decimalUnary(op func(decimal.Decimal) decimal.Decimal) func([]any) (any, error) {
	return func(a []any) (any, error) {
		x, err := toDecimal(a[0])
		if err != nil {
			return nil, err
		}
		return op(x), nil
	}
}

func decimalCmp(a []any) (any, error) {
	x, err := toDecimal(a[0])
	if err != nil {
		return nil, err
	}
	y, err := toDecimal(a[1])
	if err != nil {
		return nil, err
	}
	return x.Cmp(y), nil
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch d := v.(type) {
	case decimal.Decimal:
		return d, nil
	case *decimal.Decimal:
		if d == nil {
			return decimal.Decimal{}, errors.New("cannot convert nil to decimal")
		}
		return *d, nil
	case string:
		return decimal.NewFromString(d)
	case float32, float64:
		return decimal.NewFromFloat(cast.ToFloat64(d)), nil
	}
	i, err := cast.ToInt64E(v)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("cannot convert %T to decimal: %w", v, err)
	}
	return decimal.NewFromInt(i), nil
}

func toTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case *time.Time:
		if t == nil {
			return time.Time{}, errors.New("cannot convert nil to time")
		}
		return *t, nil
	}
	return cast.ToTimeE(v)
}

func toUUID(v any) (uuid.UUID, error) {
	switch id := v.(type) {
	case uuid.UUID:
		return id, nil
	case *uuid.UUID:
		if id == nil {
			return uuid.Nil, errors.New("cannot convert nil to guid")
		}
		return *id, nil
	case [16]byte:
		return uuid.UUID(id), nil
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(s)
}

func toBytes(v any) ([]byte, error) {
	switch b := v.(type) {
	case []byte:
		return b, nil
	case string:
		return []byte(b), nil
	}
	return nil, fmt.Errorf("cannot convert %T to binary", v)
}
