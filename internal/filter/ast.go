// Package filter implements the task filter language: field registry, lexer,
// recursive-descent parser, and the cursor-aware completion detector.
package filter

import (
	"strconv"
	"strings"
)

// Op is a comparison operator in a condition.
type Op int

const (
	OpEq           Op = iota // =
	OpNe                     // !=
	OpGlobMatch              // =~
	OpGlobNotMatch           // !~
	OpGt                     // >
	OpLt                     // <
	OpGte                    // >=
	OpLte                    // <=
	OpIs                     // IS
	OpIsNot                  // IS NOT
	OpIn                     // IN
	OpNotIn                  // NOT IN
)

func (op Op) String() string {
	switch op {
	case OpNe:
		return "!="
	case OpGlobMatch:
		return "=~"
	case OpGlobNotMatch:
		return "!~"
	case OpGt:
		return ">"
	case OpLt:
		return "<"
	case OpGte:
		return ">="
	case OpLte:
		return "<="
	case OpIs:
		return "IS"
	case OpIsNot:
		return "IS NOT"
	case OpIn:
		return "IN"
	case OpNotIn:
		return "NOT IN"
	default:
		return "="
	}
}

// ValueKind tags the variant held by a Value.
type ValueKind int

const (
	ValueString ValueKind = iota
	ValueNumber
	ValueBool
	ValueNull
	ValueArray
)

// Value is a literal on the right-hand side of a condition.
// Only the member matching Kind is meaningful.
type Value struct {
	Kind  ValueKind
	Str   string
	Num   float64
	Bool  bool
	Items []Value
}

// String builds a string value.
func String(s string) Value { return Value{Kind: ValueString, Str: s} }

// Number builds a numeric value.
func Number(n float64) Value { return Value{Kind: ValueNumber, Num: n} }

// Bool builds a boolean value.
func Bool(b bool) Value { return Value{Kind: ValueBool, Bool: b} }

// Null is the NULL literal.
func Null() Value { return Value{Kind: ValueNull} }

// Array builds an array value.
func Array(items ...Value) Value { return Value{Kind: ValueArray, Items: items} }

// Strings returns the string members of an array value (or the value itself
// when it is a string). ok is false if any member is not a string.
func (v Value) Strings() (out []string, ok bool) {
	switch v.Kind {
	case ValueString:
		return []string{v.Str}, true
	case ValueArray:
		out = make([]string, 0, len(v.Items))
		for _, item := range v.Items {
			if item.Kind != ValueString {
				return nil, false
			}
			out = append(out, item.Str)
		}
		return out, true
	default:
		return nil, false
	}
}

func (v Value) String() string {
	switch v.Kind {
	case ValueString:
		return quote(v.Str)
	case ValueNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case ValueBool:
		if v.Bool {
			return "TRUE"
		}
		return "FALSE"
	case ValueNull:
		return "NULL"
	case ValueArray:
		parts := make([]string, len(v.Items))
		for i, item := range v.Items {
			parts[i] = item.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return "?"
	}
}

func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'"
}

// Expr is a node of the filter expression tree.
type Expr interface {
	exprNode()
	String() string
}

// Condition is a single field/operator/value predicate.
type Condition struct {
	Field Field
	Op    Op
	Value Value
}

func (*Condition) exprNode() {}

func (c *Condition) String() string {
	return c.Field.String() + " " + c.Op.String() + " " + c.Value.String()
}

// And matches tasks matched by both sides.
type And struct {
	Left  Expr
	Right Expr
}

func (*And) exprNode() {}

func (a *And) String() string {
	return "(" + a.Left.String() + " AND " + a.Right.String() + ")"
}

// Or matches tasks matched by either side.
type Or struct {
	Left  Expr
	Right Expr
}

func (*Or) exprNode() {}

func (o *Or) String() string {
	return "(" + o.Left.String() + " OR " + o.Right.String() + ")"
}

// Not matches visible tasks not matched by Expr.
type Not struct {
	Expr Expr
}

func (*Not) exprNode() {}

func (n *Not) String() string {
	if _, ok := n.Expr.(*Condition); ok {
		return "NOT (" + n.Expr.String() + ")"
	}
	return "NOT " + n.Expr.String()
}

// Direction is an ORDER BY direction.
type Direction int

const (
	Asc Direction = iota
	Desc
)

func (d Direction) String() string {
	if d == Desc {
		return "DESC"
	}
	return "ASC"
}

// OrderBy sorts results by a single field.
type OrderBy struct {
	Field     Field
	Direction Direction
}

func (o OrderBy) String() string {
	return "ORDER BY " + o.Field.String() + " " + o.Direction.String()
}

// Query is a parsed filter: an optional expression and an optional sort.
// The zero Query means "no filter, no sort".
type Query struct {
	Expr    Expr
	OrderBy *OrderBy
}

// IsEmpty reports whether q neither filters nor sorts.
func (q *Query) IsEmpty() bool {
	return q == nil || (q.Expr == nil && q.OrderBy == nil)
}

func (q *Query) String() string {
	if q == nil {
		return ""
	}
	var parts []string
	if q.Expr != nil {
		parts = append(parts, q.Expr.String())
	}
	if q.OrderBy != nil {
		parts = append(parts, q.OrderBy.String())
	}
	return strings.Join(parts, " ")
}
