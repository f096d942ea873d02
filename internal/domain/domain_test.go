package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTable(t *testing.T) {
	tbl, ok := ParseTable("status")
	assert.True(t, ok)
	assert.Equal(t, TableStatus, tbl)

	tbl, ok = ParseTable("assignment")
	assert.True(t, ok)
	assert.Equal(t, TableAssignment, tbl)

	_, ok = ParseTable("agents")
	assert.False(t, ok)
	_, ok = ParseTable("")
	assert.False(t, ok)
}

func TestTableHasField(t *testing.T) {
	assert.True(t, TableStatus.HasField(FieldBacklog))
	assert.True(t, TableStatus.HasField(FieldActive))
	assert.True(t, TableStatus.HasField(FieldPriority))
	assert.False(t, TableStatus.HasField(FieldInvestigation))

	assert.True(t, TableAssignment.HasField(FieldEasyToHandle))
	assert.True(t, TableAssignment.HasField(FieldInvestigation))
	assert.True(t, TableAssignment.HasField(FieldAutocloseTickets))
	assert.False(t, TableAssignment.HasField(FieldPriority))

	assert.False(t, Table("nope").HasField(FieldBacklog))
}

func TestNormalizePriority(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{"", ""},
		{"P1", "P1"},
		{"p1", "P1"},
		{"p2", "P2"},
		{"P3", ""},
		{"high", ""},
		{" p1", ""},
		{nil, ""},
		{float64(1), ""},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%v", tt.in), func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePriority(tt.in))
		})
	}
}

func TestNormalizeCount(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want int
	}{
		{"string", "5", 5},
		{"padded string", " 7 ", 7},
		{"float", float64(3), 3},
		{"fraction truncates", float64(2.9), 2},
		{"json number", json.Number("12"), 12},
		{"negative", "-4", 0},
		{"negative float", float64(-1), 0},
		{"garbage", "abc", 0},
		{"decimal string", "1.5", 0},
		{"empty", "", 0},
		{"nil", nil, 0},
		{"bool", true, 0},
		{"huge", "99999999999", MaxCount},
		{"beyond int64 string", "99999999999999999999", MaxCount},
		{"beyond int64 negative string", "-99999999999999999999", 0},
		{"huge json number", json.Number("99999999999999999999"), MaxCount},
		{"exponent json number", json.Number("1e30"), MaxCount},
		{"float overflow json number", json.Number("1e400"), MaxCount},
		{"negative exponent json number", json.Number("-1e30"), 0},
		{"huge float", float64(1e30), MaxCount},
		{"infinity", math.Inf(1), MaxCount},
		{"nan", math.NaN(), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeCount(tt.in))
		})
	}
}

func TestNormalize_DispatchesOnField(t *testing.T) {
	assert.Equal(t, "P2", Normalize(FieldPriority, "p2"))
	assert.Equal(t, 9, Normalize(FieldBacklog, "9"))
	assert.Equal(t, 0, Normalize(FieldInvestigation, "x"))
}

func TestSnapshotLookups(t *testing.T) {
	snap := Snapshot{
		Status:     []StatusRow{{Name: "Ann", Backlog: 1}, {Name: "Bob", Priority: "P1"}},
		Assignment: []AssignmentRow{{Name: "Ann"}, {Name: "Bob", Investigation: 4}},
	}
	assert.Equal(t, []string{"Ann", "Bob"}, snap.Names())

	st, ok := snap.StatusOf("Bob")
	assert.True(t, ok)
	assert.Equal(t, "P1", st.Priority)

	as, ok := snap.AssignmentOf("Bob")
	assert.True(t, ok)
	assert.Equal(t, 4, as.Investigation)

	_, ok = snap.StatusOf("Cid")
	assert.False(t, ok)
}

func TestSnapshotJSONShape(t *testing.T) {
	snap := Snapshot{
		Status:     []StatusRow{{Name: "Ann", Backlog: 2, Active: 1, Priority: "P2"}},
		Assignment: []AssignmentRow{{Name: "Ann", EasyToHandle: 3, Investigation: 4, AutocloseTickets: 5}},
	}
	data, err := json.Marshal(snap)
	assert.NoError(t, err)
	assert.JSONEq(t, `{
		"status": [{"name":"Ann","backlog":2,"active":1,"priority":"P2"}],
		"assignment": [{"name":"Ann","easy_to_handle":3,"investigation":4,"autoclose_tickets":5}]
	}`, string(data))
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, CodeInvalidParams, ErrorCode(Invalidf("bad %s", "x")))
	assert.Equal(t, CodeNotFound, ErrorCode(&NotFoundError{Agent: "a"}))
	assert.Equal(t, CodeConflict, ErrorCode(fmt.Errorf("wrap: %w", &ConflictError{Agent: "b"})))
	assert.Equal(t, CodePersistence, ErrorCode(&PersistenceError{Op: "rename", Err: errors.New("disk")}))
	assert.Equal(t, CodeInternal, ErrorCode(errors.New("boom")))
}

func TestPublicMessage_HidesStorageDetails(t *testing.T) {
	err := &PersistenceError{Op: "rename", Err: errors.New("database is locked")}
	assert.NotContains(t, PublicMessage(err), "locked")
	assert.Equal(t, "Agent is required.", PublicMessage(Invalidf("Agent is required.")))
}

func TestPersistenceErrorUnwrap(t *testing.T) {
	inner := errors.New("disk full")
	err := &PersistenceError{Op: "write", Err: inner}
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, "write: disk full", err.Error())
}
