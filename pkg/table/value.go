// pkg/table/value.go
package table

import (
	"strconv"
	"strings"
	"time"
)

// Kind identifies the type of value held in a table cell
type Kind int

const (
	// KindNull marks an absent or unparseable value
	KindNull Kind = iota
	// KindString holds a categorical label or free text
	KindString
	// KindNumber holds a floating point measurement
	KindNumber
	// KindBool holds a boolean indicator
	KindBool
	// KindTime holds a parsed timestamp
	KindTime
)

// String returns a string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	default:
		return "unknown"
	}
}

// Value is a single table cell. The zero value is null.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	t    time.Time
}

// Null returns the null value
func Null() Value {
	return Value{kind: KindNull}
}

// String wraps a string value
func String(s string) Value {
	return Value{kind: KindString, str: s}
}

// Number wraps a numeric value
func Number(f float64) Value {
	return Value{kind: KindNumber, num: f}
}

// Bool wraps a boolean value
func Bool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// Time wraps a timestamp value
func Time(t time.Time) Value {
	return Value{kind: KindTime, t: t}
}

// Kind returns the kind of the value
func (v Value) Kind() Kind {
	return v.kind
}

// IsNull reports whether the value is null
func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// Str returns the string payload and whether the value is a string
func (v Value) Str() (string, bool) {
	return v.str, v.kind == KindString
}

// Num returns the numeric payload and whether the value is a number
func (v Value) Num() (float64, bool) {
	return v.num, v.kind == KindNumber
}

// BoolVal returns the boolean payload and whether the value is a bool
func (v Value) BoolVal() (bool, bool) {
	return v.b, v.kind == KindBool
}

// TimeVal returns the timestamp payload and whether the value is a time
func (v Value) TimeVal() (time.Time, bool) {
	return v.t, v.kind == KindTime
}

// timestampLayouts are tried in order when coercing a cell to a timestamp.
// The raw dataset uses "2006-01-02 15:04:05" with optional fractional seconds.
var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02",
}

// ParseNumber attempts to coerce a value to a number. A value that cannot
// be coerced yields (Null, false) so callers can distinguish a parse
// failure from a legitimately absent input.
func ParseNumber(v Value) (Value, bool) {
	switch v.kind {
	case KindNumber:
		return v, true
	case KindBool:
		if v.b {
			return Number(1), true
		}
		return Number(0), true
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
		if err != nil {
			return Null(), false
		}
		return Number(f), true
	default:
		return Null(), false
	}
}

// ParseTimestamp attempts to coerce a value to a timestamp, trying each
// known layout in turn. Malformed input yields (Null, false).
func ParseTimestamp(v Value) (Value, bool) {
	switch v.kind {
	case KindTime:
		return v, true
	case KindString:
		s := strings.TrimSpace(v.str)
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return Time(t), true
			}
		}
		return Null(), false
	default:
		return Null(), false
	}
}

// InferCell converts a raw text cell into a typed value. Empty cells become
// null; cells that parse as numbers or booleans are typed accordingly;
// everything else stays a string. Timestamps are left as strings until the
// temporal validation stage parses them.
func InferCell(raw string) Value {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Null()
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return Number(f)
	}

	switch s {
	case "True", "true", "TRUE":
		return Bool(true)
	case "False", "false", "FALSE":
		return Bool(false)
	}

	return String(s)
}

// Format renders a value for text output. Numbers use the shortest
// representation that round-trips; null renders as the empty string.
func (v Value) Format() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		if v.b {
			return "True"
		}
		return "False"
	case KindTime:
		return v.t.Format("2006-01-02 15:04:05")
	default:
		return ""
	}
}
