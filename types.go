package treedoc

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

// Type tags the semantic type of a document value.
type Type int

const (
	TypeNull     Type = iota // explicit null
	TypeBool                 // boolean
	TypeInt                  // integer (held as int64)
	TypeFloat                // float (held as float64)
	TypeString               // string
	TypeBytes                // byte string
	TypeDate                 // calendar date without a time component
	TypeDateTime             // date with a time component (held as time.Time)
	TypeMapping              // mapping container
	TypeSequence             // sequence container
	typeInvalid              // sentinel for values outside the model
)

func (t Type) String() string {
	switch t {
	case TypeNull:
		return "null"
	case TypeBool:
		return "bool"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeString:
		return "str"
	case TypeBytes:
		return "bytes"
	case TypeDate:
		return "date"
	case TypeDateTime:
		return "datetime"
	case TypeMapping:
		return "map"
	case TypeSequence:
		return "list"
	default:
		return fmt.Sprintf("type(%d)", int(t))
	}
}

func (t Type) known() bool { return t >= TypeNull && t < typeInvalid }

// satisfies reports whether a value of type t meets the constraint c.
// Matching is subtype-aware: a datetime satisfies a date constraint, never
// the reverse.
func (t Type) satisfies(c Type) bool {
	if t == c {
		return true
	}
	return t == TypeDateTime && c == TypeDate
}

// TypeSet is a rule's type constraint; a value matches when it satisfies any
// member.
type TypeSet []Type

// String joins the member names with " or ", matching diagnostic output.
func (ts TypeSet) String() string {
	names := make([]string, len(ts))
	for i, t := range ts {
		names[i] = t.String()
	}
	return strings.Join(names, " or ")
}

// State tracks the lifecycle of a bound container node. It only advances.
type State int

const (
	StateNew    State = iota // created from a raw value, no rules attached
	StateRuled               // rules attached, presence resolved
	StateTyped               // type constraints verified
	StateTested              // value tests verified
	StateFormed              // at least one transform changed the subtree
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateRuled:
		return "RULED"
	case StateTyped:
		return "TYPED"
	case StateTested:
		return "TESTED"
	case StateFormed:
		return "FORMED"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ParseOpt bundles parsing options. The zero value runs the full pipeline.
type ParseOpt struct {
	SkipTypeCheck bool
	SkipTestCheck bool
	SkipTransform bool
	// Notifier receives advisory notices emitted while binding. Defaults to a
	// once-per-process stderr writer.
	Notifier Notifier
}

// Notifier receives advisory notices that do not affect the validation
// outcome, such as the discouraged-field-name warning.
type Notifier interface {
	Notice(msg string)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(msg string)

func (f NotifierFunc) Notice(msg string) { f(msg) }

// NopNotifier suppresses all advisory notices.
var NopNotifier Notifier = NotifierFunc(func(string) {})

var underscoreOnce sync.Once

// stderrNotifier writes the first notice of the process to stderr and drops
// the rest.
type stderrNotifier struct{}

func (stderrNotifier) Notice(msg string) {
	underscoreOnce.Do(func() {
		fmt.Fprintln(os.Stderr, msg)
	})
}
