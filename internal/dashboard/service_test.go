package dashboard

import (
	"context"
	"errors"
	"testing"

	"github.com/soyeahso/queueboard/internal/domain"
	"github.com/soyeahso/queueboard/internal/logging"
	"github.com/soyeahso/queueboard/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLog() *logging.Logger {
	return logging.New(nil, "silent")
}

// backends runs fn against every Store implementation.
func backends(t *testing.T, fn func(t *testing.T, svc *Service)) {
	t.Run("memory", func(t *testing.T) {
		fn(t, NewService(NewMemoryStore(), testLog()))
	})
	t.Run("sqlite", func(t *testing.T) {
		db, err := store.Open(context.Background(), store.Target{Driver: store.DriverSQLite, DSN: ":memory:"}, testLog())
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })
		fn(t, NewService(store.NewBoard(db), testLog()))
	})
}

// recordingStore counts calls so tests can assert nothing reached storage.
type recordingStore struct {
	Store
	writes  int
	renames int
	err     error
}

func (r *recordingStore) WriteField(ctx context.Context, cell domain.Cell, value any) (any, error) {
	r.writes++
	if r.err != nil {
		return nil, r.err
	}
	return r.Store.WriteField(ctx, cell, value)
}

func (r *recordingStore) RenameAgent(ctx context.Context, oldName, newName string) error {
	r.renames++
	if r.err != nil {
		return r.err
	}
	return r.Store.RenameAgent(ctx, oldName, newName)
}

func TestFreshSeed(t *testing.T) {
	backends(t, func(t *testing.T, svc *Service) {
		snap, err := svc.Snapshot(context.Background())
		require.NoError(t, err)

		assert.ElementsMatch(t, []string{"Victor", "Julio", "Felipe", "Cindy"}, snap.Names())
		require.Len(t, snap.Assignment, len(snap.Status))
		for i, st := range snap.Status {
			assert.Equal(t, domain.StatusRow{Name: st.Name, Priority: ""}, st)
			assert.Equal(t, domain.AssignmentRow{Name: st.Name}, snap.Assignment[i])
		}
	})
}

func TestApplyEdit_Scenario(t *testing.T) {
	backends(t, func(t *testing.T, svc *Service) {
		ctx := context.Background()

		upd, err := svc.ApplyEdit(ctx, domain.Edit{Table: "status", Agent: "Victor", Field: "backlog", Value: "5"})
		require.NoError(t, err)
		assert.Equal(t, domain.CellUpdate{Agent: "Victor", Table: domain.TableStatus, Field: domain.FieldBacklog, Value: 5}, upd)

		upd, err = svc.ApplyEdit(ctx, domain.Edit{Table: "status", Agent: "Victor", Field: "priority", Value: "p1"})
		require.NoError(t, err)
		assert.Equal(t, "P1", upd.Value)

		snap, err := svc.Snapshot(ctx)
		require.NoError(t, err)
		st, ok := snap.StatusOf("Victor")
		require.True(t, ok)
		assert.Equal(t, 5, st.Backlog)
		assert.Equal(t, "P1", st.Priority)

		renamed, err := svc.Rename(ctx, "Victor", "Vic")
		require.NoError(t, err)
		assert.True(t, renamed)

		snap, err = svc.Snapshot(ctx)
		require.NoError(t, err)
		assert.NotContains(t, snap.Names(), "Victor")
		st, ok = snap.StatusOf("Vic")
		require.True(t, ok)
		assert.Equal(t, 5, st.Backlog)
		assert.Equal(t, "P1", st.Priority)
		_, ok = snap.AssignmentOf("Vic")
		assert.True(t, ok)
	})
}

func TestApplyEdit_BadNumbersStoreZero(t *testing.T) {
	backends(t, func(t *testing.T, svc *Service) {
		ctx := context.Background()
		numeric := map[domain.Table][]domain.Field{
			domain.TableStatus:     {domain.FieldBacklog, domain.FieldActive},
			domain.TableAssignment: {domain.FieldEasyToHandle, domain.FieldInvestigation, domain.FieldAutocloseTickets},
		}
		for table, fields := range numeric {
			for _, field := range fields {
				for _, raw := range []any{"-3", float64(-1), "abc", "", nil, true} {
					// Seed a non-zero value first so a zero result is observable.
					_, err := svc.ApplyEdit(ctx, domain.Edit{Table: string(table), Agent: "Julio", Field: string(field), Value: 8})
					require.NoError(t, err)

					upd, err := svc.ApplyEdit(ctx, domain.Edit{Table: string(table), Agent: "Julio", Field: string(field), Value: raw})
					require.NoError(t, err)
					assert.Equal(t, 0, upd.Value, "%s.%s <- %v", table, field, raw)
				}
			}
		}

		snap, err := svc.Snapshot(ctx)
		require.NoError(t, err)
		st, _ := snap.StatusOf("Julio")
		as, _ := snap.AssignmentOf("Julio")
		assert.Equal(t, domain.StatusRow{Name: "Julio"}, st)
		assert.Equal(t, domain.AssignmentRow{Name: "Julio"}, as)
	})
}

func TestApplyEdit_PriorityValues(t *testing.T) {
	backends(t, func(t *testing.T, svc *Service) {
		ctx := context.Background()
		cases := map[string]string{
			"p1": "P1", "P2": "P2", "": "", "p3": "", "urgent": "",
		}
		for in, want := range cases {
			upd, err := svc.ApplyEdit(ctx, domain.Edit{Table: "status", Agent: "Cindy", Field: "priority", Value: in})
			require.NoError(t, err)
			assert.Equal(t, want, upd.Value, "input %q", in)

			snap, err := svc.Snapshot(ctx)
			require.NoError(t, err)
			st, _ := snap.StatusOf("Cindy")
			assert.Equal(t, want, st.Priority)
		}
	})
}

func TestApplyEdit_UnknownAgentCreated(t *testing.T) {
	backends(t, func(t *testing.T, svc *Service) {
		ctx := context.Background()

		upd, err := svc.ApplyEdit(ctx, domain.Edit{Table: "assignment", Agent: "  Nina ", Field: "investigation", Value: "4"})
		require.NoError(t, err)
		assert.Equal(t, "Nina", upd.Agent)

		snap, err := svc.Snapshot(ctx)
		require.NoError(t, err)
		assert.Len(t, snap.Status, 5)
		assert.Len(t, snap.Assignment, 5)

		st, ok := snap.StatusOf("Nina")
		require.True(t, ok)
		assert.Equal(t, domain.StatusRow{Name: "Nina"}, st)
		as, ok := snap.AssignmentOf("Nina")
		require.True(t, ok)
		assert.Equal(t, domain.AssignmentRow{Name: "Nina", Investigation: 4}, as)
	})
}

func TestApplyEdit_ValidationNeverReachesStore(t *testing.T) {
	tests := []struct {
		name string
		edit domain.Edit
		msg  string
	}{
		{"empty agent", domain.Edit{Table: "status", Agent: "", Field: "backlog", Value: 1}, "Agent is required."},
		{"blank agent", domain.Edit{Table: "status", Agent: "   ", Field: "backlog", Value: 1}, "Agent is required."},
		{"bad table", domain.Edit{Table: "agents", Agent: "Victor", Field: "name", Value: "x"}, "Invalid table"},
		{"field of other table", domain.Edit{Table: "status", Agent: "Victor", Field: "investigation", Value: 1}, "Invalid field"},
		{"unknown field", domain.Edit{Table: "assignment", Agent: "Victor", Field: "priority", Value: "P1"}, "Invalid field"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recordingStore{Store: NewMemoryStore()}
			svc := NewService(rec, testLog())

			_, err := svc.ApplyEdit(context.Background(), tt.edit)
			var ve *domain.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.msg, ve.Message)
			assert.Equal(t, 0, rec.writes)
		})
	}
}

func TestApplyEdit_PersistenceFailureSurfaced(t *testing.T) {
	rec := &recordingStore{
		Store: NewMemoryStore(),
		err:   &domain.PersistenceError{Op: "write field", Err: errors.New("disk full")},
	}
	svc := NewService(rec, testLog())

	_, err := svc.ApplyEdit(context.Background(), domain.Edit{Table: "status", Agent: "Victor", Field: "active", Value: 2})
	assert.Equal(t, domain.CodePersistence, domain.ErrorCode(err))
	assert.Equal(t, 1, rec.writes)
}

func TestRename_SameNameIsNoop(t *testing.T) {
	rec := &recordingStore{Store: NewMemoryStore()}
	svc := NewService(rec, testLog())

	renamed, err := svc.Rename(context.Background(), "Victor", " Victor ")
	require.NoError(t, err)
	assert.False(t, renamed)
	assert.Equal(t, 0, rec.renames)
}

func TestRename_EmptyNames(t *testing.T) {
	rec := &recordingStore{Store: NewMemoryStore()}
	svc := NewService(rec, testLog())

	for _, pair := range [][2]string{{"", "Vic"}, {"Victor", ""}, {" ", " "}} {
		_, err := svc.Rename(context.Background(), pair[0], pair[1])
		assert.Equal(t, domain.CodeInvalidParams, domain.ErrorCode(err))
	}
	assert.Equal(t, 0, rec.renames)
}

func TestRename_Failures(t *testing.T) {
	backends(t, func(t *testing.T, svc *Service) {
		ctx := context.Background()

		_, err := svc.Rename(ctx, "Ghost", "Vic")
		assert.Equal(t, domain.CodeNotFound, domain.ErrorCode(err))

		_, err = svc.Rename(ctx, "Victor", "Julio")
		assert.Equal(t, domain.CodeConflict, domain.ErrorCode(err))

		snap, err := svc.Snapshot(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"Victor", "Julio", "Felipe", "Cindy"}, snap.Names())
	})
}

func TestSnapshot_SortedAndAligned(t *testing.T) {
	backends(t, func(t *testing.T, svc *Service) {
		ctx := context.Background()
		for _, name := range []string{"Bea", "Ade", "Zoe"} {
			_, err := svc.ApplyEdit(ctx, domain.Edit{Table: "status", Agent: name, Field: "active", Value: 1})
			require.NoError(t, err)
		}

		snap, err := svc.Snapshot(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"Ade", "Bea", "Cindy", "Felipe", "Julio", "Victor", "Zoe"}, snap.Names())
		require.Len(t, snap.Assignment, len(snap.Status))
		for i := range snap.Status {
			assert.Equal(t, snap.Status[i].Name, snap.Assignment[i].Name)
		}
	})
}

func TestPing(t *testing.T) {
	assert.NoError(t, NewService(NewMemoryStore(), testLog()).Ping(context.Background()))

	db, err := store.Open(context.Background(), store.Target{Driver: store.DriverSQLite, DSN: ":memory:"}, testLog())
	require.NoError(t, err)
	svc := NewService(store.NewBoard(db), testLog())
	require.NoError(t, svc.Ping(context.Background()))

	require.NoError(t, db.Close())
	assert.Error(t, svc.Ping(context.Background()))
}
