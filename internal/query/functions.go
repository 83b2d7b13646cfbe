package query

import (
	"strings"

	"github.com/nlstn/go-odata-filter/internal/edm"
)

// Names of the functions callable from filter text.
const (
	FuncEndsWith    = "endswith"
	FuncStartsWith  = "startswith"
	FuncSubstringOf = "substringof"
	FuncIndexOf     = "indexof"
	FuncReplace     = "replace"
	FuncToLower     = "tolower"
	FuncToUpper     = "toupper"
	FuncTrim        = "trim"
	FuncSubstring   = "substring"
	FuncConcat      = "concat"
	FuncLength      = "length"
	FuncYear        = "year"
	FuncMonth       = "month"
	FuncDay         = "day"
	FuncHour        = "hour"
	FuncMinute      = "minute"
	FuncSecond      = "second"
	FuncRound       = "round"
	FuncCeiling     = "ceiling"
	FuncFloor       = "floor"
)

// Names of the functions the parser introduces when desugaring operators.
// They cannot be called by name from filter text.
const (
	FuncStrCmp      = "strcmp"
	FuncDateTimeCmp = "dateTimeCmp"
	FuncGuidEqual   = "guidEqual"
	FuncBinaryEqual = "binaryEqual"
	FuncIsNull      = "is_null"
)

// FunctionDescriptor is one overload of a catalog function.
type FunctionDescriptor struct {
	Name       string
	ReturnType *edm.PrimitiveType
	ParamTypes []*edm.PrimitiveType
}

func fn(name string, ret *edm.PrimitiveType, params ...*edm.PrimitiveType) *FunctionDescriptor {
	return &FunctionDescriptor{Name: name, ReturnType: ret, ParamTypes: params}
}

// Arity returns the number of parameters.
func (d *FunctionDescriptor) Arity() int {
	return len(d.ParamTypes)
}

// Prototype renders the descriptor as "name(Edm.A, Edm.B) Edm.R".
func (d *FunctionDescriptor) Prototype() string {
	params := make([]string, len(d.ParamTypes))
	for i, p := range d.ParamTypes {
		params[i] = p.Name()
	}
	return d.Name + "(" + strings.Join(params, ", ") + ") " + d.ReturnType.Name()
}

func (d *FunctionDescriptor) String() string {
	return d.Prototype()
}

var catalog = map[string][]*FunctionDescriptor{
	FuncEndsWith:    {fn(FuncEndsWith, edm.Boolean, edm.String, edm.String)},
	FuncStartsWith:  {fn(FuncStartsWith, edm.Boolean, edm.String, edm.String)},
	FuncSubstringOf: {fn(FuncSubstringOf, edm.Boolean, edm.String, edm.String)},
	FuncIndexOf:     {fn(FuncIndexOf, edm.Int32, edm.String, edm.String)},
	FuncReplace:     {fn(FuncReplace, edm.String, edm.String, edm.String, edm.String)},
	FuncToLower:     {fn(FuncToLower, edm.String, edm.String)},
	FuncToUpper:     {fn(FuncToUpper, edm.String, edm.String)},
	FuncTrim:        {fn(FuncTrim, edm.String, edm.String)},
	FuncSubstring: {
		fn(FuncSubstring, edm.String, edm.String, edm.Int32),
		fn(FuncSubstring, edm.String, edm.String, edm.Int32, edm.Int32),
	},
	FuncConcat: {fn(FuncConcat, edm.String, edm.String, edm.String)},
	FuncLength: {fn(FuncLength, edm.Int32, edm.String)},
	FuncYear:   {fn(FuncYear, edm.Int32, edm.DateTime)},
	FuncMonth:  {fn(FuncMonth, edm.Int32, edm.DateTime)},
	FuncDay:    {fn(FuncDay, edm.Int32, edm.DateTime)},
	FuncHour:   {fn(FuncHour, edm.Int32, edm.DateTime)},
	FuncMinute: {fn(FuncMinute, edm.Int32, edm.DateTime)},
	FuncSecond: {fn(FuncSecond, edm.Int32, edm.DateTime)},
	FuncRound: {
		fn(FuncRound, edm.Decimal, edm.Decimal),
		fn(FuncRound, edm.Double, edm.Double),
	},
	FuncCeiling: {
		fn(FuncCeiling, edm.Decimal, edm.Decimal),
		fn(FuncCeiling, edm.Double, edm.Double),
	},
	FuncFloor: {
		fn(FuncFloor, edm.Decimal, edm.Decimal),
		fn(FuncFloor, edm.Double, edm.Double),
	},
}

// Operator functions used when desugaring comparisons.
var (
	StrCmp      = fn(FuncStrCmp, edm.Int32, edm.String, edm.String)
	DateTimeCmp = fn(FuncDateTimeCmp, edm.Int32, edm.DateTime, edm.DateTime)
	GuidEqual   = fn(FuncGuidEqual, edm.Boolean, edm.Guid, edm.Guid)
	BinaryEqual = fn(FuncBinaryEqual, edm.Boolean, edm.Binary, edm.Binary)
)

// IsNullCheck returns the is_null descriptor for an argument of type t.
func IsNullCheck(t *edm.PrimitiveType) *FunctionDescriptor {
	return fn(FuncIsNull, edm.Boolean, t)
}

// IsNullCheckCall reports whether call is an is_null check.
func IsNullCheckCall(call *FunctionCallExpr) bool {
	return call.Function.Name == FuncIsNull
}

// comparatorFor returns the operator function that replaces a relational
// operator over two operands of type t, or nil when the operator applies
// directly.
func comparatorFor(t *edm.PrimitiveType) *FunctionDescriptor {
	switch t.Kind() {
	case edm.KindString:
		return StrCmp
	case edm.KindDateTime:
		return DateTimeCmp
	case edm.KindGuid:
		return GuidEqual
	case edm.KindBinary:
		return BinaryEqual
	}
	return nil
}

// ResolveByName returns the overloads of a user-callable function. pos is
// the position of the function name, used in the error.
func ResolveByName(name string, pos int) ([]*FunctionDescriptor, error) {
	candidates, ok := catalog[name]
	if !ok {
		return nil, newError(KindSemantic, CodeUnknownFunction, pos, "unknown function '%s'", name)
	}
	return candidates, nil
}

// ResolveOverload picks the overload whose parameters accept the argument
// types. Arguments must match in count and be assignable to the parameter
// types. When several overloads qualify, the ones with the most exactly
// matching parameters win; a tie is ambiguous.
func ResolveOverload(candidates []*FunctionDescriptor, args []Expression, pos int) (*FunctionDescriptor, error) {
	var best []*FunctionDescriptor
	bestExact := -1

	for _, candidate := range candidates {
		exact, ok := matchArguments(candidate, args)
		if !ok {
			continue
		}
		switch {
		case exact > bestExact:
			best = []*FunctionDescriptor{candidate}
			bestExact = exact
		case exact == bestExact:
			best = append(best, candidate)
		}
	}

	switch len(best) {
	case 1:
		return best[0], nil
	case 0:
		name := ""
		if len(candidates) > 0 {
			name = candidates[0].Name
		}
		return nil, newError(KindSemantic, CodeUnknownFunction, pos,
			"no overload of '%s' accepts arguments (%s); candidates: %s",
			name, argumentTypes(args), prototypes(candidates))
	default:
		return nil, newError(KindSemantic, CodeAmbiguousFunctionCall, pos,
			"ambiguous call to '%s' with arguments (%s); candidates: %s",
			best[0].Name, argumentTypes(args), prototypes(best))
	}
}

func matchArguments(candidate *FunctionDescriptor, args []Expression) (int, bool) {
	if candidate.Arity() != len(args) {
		return 0, false
	}
	exact := 0
	for i, param := range candidate.ParamTypes {
		argType := args[i].Type()
		if !param.IsAssignableFrom(argType) {
			return 0, false
		}
		if param == argType {
			exact++
		}
	}
	return exact, true
}

func argumentTypes(args []Expression) string {
	names := make([]string, len(args))
	for i, arg := range args {
		names[i] = arg.Type().Name()
	}
	return strings.Join(names, ", ")
}

func prototypes(candidates []*FunctionDescriptor) string {
	protos := make([]string, len(candidates))
	for i, c := range candidates {
		protos[i] = c.Prototype()
	}
	return strings.Join(protos, "; ")
}
