package tags

import (
	"strconv"
	"strings"
)

// Kind identifies which field of a Value is populated.
type Kind int

const (
	KindString Kind = iota
	KindBool
	KindInt
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	default:
		return "string"
	}
}

// Value is a coerced tag value: exactly one of bool, int or string.
type Value struct {
	Kind Kind
	Bool bool
	Int  int
	Str  string
}

func BoolValue(b bool) Value     { return Value{Kind: KindBool, Bool: b} }
func IntValue(n int) Value       { return Value{Kind: KindInt, Int: n} }
func StringValue(s string) Value { return Value{Kind: KindString, Str: s} }

var (
	trueWords  = map[string]bool{"true": true, "enabled": true, "yes": true}
	falseWords = map[string]bool{"false": true, "disabled": true, "no": true}
)

// Coerce converts a raw tag value. Boolean words win over numbers, numbers
// are read from the first whitespace-delimited token, anything else stays a string.
func Coerce(raw string) Value {
	s := strings.TrimSpace(raw)
	lower := strings.ToLower(s)

	if trueWords[lower] {
		return BoolValue(true)
	}
	if falseWords[lower] {
		return BoolValue(false)
	}

	if fields := strings.Fields(s); len(fields) > 0 {
		if n, err := strconv.Atoi(fields[0]); err == nil {
			return IntValue(n)
		}
	}

	return StringValue(s)
}

// IsFalsy reports whether the value reads as off: false, zero, or an empty string.
func (v Value) IsFalsy() bool {
	switch v.Kind {
	case KindBool:
		return !v.Bool
	case KindInt:
		return v.Int == 0
	default:
		return v.Str == ""
	}
}

// String renders the value in a form Coerce maps back to the same Value.
func (v Value) String() string {
	switch v.Kind {
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindInt:
		return strconv.Itoa(v.Int)
	default:
		return v.Str
	}
}
