package domain

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

// Table names a board relation that holds editable cells.
type Table string

const (
	TableStatus     Table = "status"
	TableAssignment Table = "assignment"
)

// Field names an editable column.
type Field string

const (
	FieldBacklog          Field = "backlog"
	FieldActive           Field = "active"
	FieldPriority         Field = "priority"
	FieldEasyToHandle     Field = "easy_to_handle"
	FieldInvestigation    Field = "investigation"
	FieldAutocloseTickets Field = "autoclose_tickets"
)

// Priority values. PriorityNone is stored as NULL.
const (
	PriorityNone = ""
	PriorityP1   = "P1"
	PriorityP2   = "P2"
)

var allowedFields = map[Table][]Field{
	TableStatus:     {FieldBacklog, FieldActive, FieldPriority},
	TableAssignment: {FieldEasyToHandle, FieldInvestigation, FieldAutocloseTickets},
}

// ParseTable returns the table named by s.
func ParseTable(s string) (Table, bool) {
	t := Table(s)
	_, ok := allowedFields[t]
	return t, ok
}

// Fields returns the editable fields of a table.
func (t Table) Fields() []Field {
	return allowedFields[t]
}

// HasField reports whether f is editable in t.
func (t Table) HasField(f Field) bool {
	for _, allowed := range allowedFields[t] {
		if allowed == f {
			return true
		}
	}
	return false
}

// Cell addresses a single (table, agent, field) value.
type Cell struct {
	Table Table
	Agent string
	Field Field
}

// NormalizePriority uppercases v and coerces anything outside
// {"", "P1", "P2"} to "".
func NormalizePriority(v any) string {
	s := strings.ToUpper(stringValue(v))
	switch s {
	case PriorityNone, PriorityP1, PriorityP2:
		return s
	default:
		return PriorityNone
	}
}

// MaxCount is the largest storable counter; it fits a 32-bit INTEGER column.
const MaxCount = math.MaxInt32

// NormalizeCount parses v as an integer. Unparseable input becomes 0,
// negative results are clamped to 0 and oversized ones to MaxCount.
func NormalizeCount(v any) int {
	n, ok := parseInt(v)
	switch {
	case !ok || n < 0:
		return 0
	case n > MaxCount:
		return MaxCount
	default:
		return int(n)
	}
}

// Normalize returns the value that will be stored for field f.
func Normalize(f Field, v any) any {
	if f == FieldPriority {
		return NormalizePriority(v)
	}
	return NormalizeCount(v)
}

func stringValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	default:
		return ""
	}
}

// parseInt accepts Go integers, JSON numbers (fractions truncate toward
// zero) and base-10 integer strings. Out-of-range numbers saturate at the
// int64 bounds. Booleans and everything else fail.
func parseInt(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int64:
		return x, true
	case float64:
		switch {
		case math.IsNaN(x):
			return 0, false
		case x >= math.MaxInt64:
			return math.MaxInt64, true
		case x <= math.MinInt64:
			return math.MinInt64, true
		}
		return int64(x), true
	case json.Number:
		if n, err := x.Int64(); err == nil || errors.Is(err, strconv.ErrRange) {
			return n, true
		}
		f, err := x.Float64()
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return 0, false
		}
		return parseInt(f)
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if errors.Is(err, strconv.ErrRange) {
			return n, true
		}
		return n, err == nil
	default:
		return 0, false
	}
}
