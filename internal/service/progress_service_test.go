package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"case-server/internal/repository/sqlite"
)

func setupProgress(t *testing.T) (ProgressService, int64) {
	t.Helper()
	db, err := sqlite.OpenMemory(t.Name())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	users := sqlite.NewUserRepository(db)
	progress := sqlite.NewProgressRepository(db)
	require.NoError(t, users.Init(ctx))
	require.NoError(t, progress.Init(ctx))

	user, err := NewUserService(users).Register(ctx, "alice", "a@x.com", "pw123")
	require.NoError(t, err)

	return NewProgressService(progress), user.ID
}

func TestRecordThenRepeat(t *testing.T) {
	svc, userID := setupProgress(t)
	ctx := context.Background()

	outcome, err := svc.Record(ctx, userID, "black-pearl", "bp-1")
	require.NoError(t, err)
	require.Equal(t, OutcomeCreated, outcome)

	outcome, err = svc.Record(ctx, userID, "black-pearl", "bp-1")
	require.NoError(t, err)
	require.Equal(t, OutcomeAlreadyRecorded, outcome)

	records, err := svc.List(ctx, userID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "black-pearl/bp-1", records[0].Key())
}

func TestRecordInvalidInput(t *testing.T) {
	svc, userID := setupProgress(t)
	ctx := context.Background()

	cases := [][2]string{
		{"", "bp-1"},
		{"black-pearl", ""},
		{"  ", "bp-1"},
		{"", ""},
	}
	for _, tc := range cases {
		_, err := svc.Record(ctx, userID, tc[0], tc[1])
		require.ErrorIs(t, err, ErrInvalidInput)
	}
}

func TestListEmpty(t *testing.T) {
	svc, userID := setupProgress(t)

	records, err := svc.List(context.Background(), userID)
	require.NoError(t, err)
	require.Empty(t, records)
}

var rapidDBSeq atomic.Int64

// Recording any sequence of triples, each submitted twice in arbitrary
// interleaving, ends with exactly one list entry per unique triple.
func TestRecordIdempotentProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		db, err := sqlite.OpenMemory(fmt.Sprintf("progress-rapid-%d", rapidDBSeq.Add(1)))
		require.NoError(rt, err)
		defer db.Close()

		ctx := context.Background()
		users := sqlite.NewUserRepository(db)
		progress := sqlite.NewProgressRepository(db)
		require.NoError(rt, users.Init(ctx))
		require.NoError(rt, progress.Init(ctx))

		user, err := NewUserService(users).Register(ctx, "alice", "a@x.com", "pw123")
		require.NoError(rt, err)
		svc := NewProgressService(progress)

		idGen := rapid.StringMatching(`[a-z][a-z0-9-]{0,8}`)
		pairs := rapid.SliceOfN(rapid.Custom(func(t *rapid.T) [2]string {
			return [2]string{idGen.Draw(t, "scenario"), idGen.Draw(t, "level")}
		}), 1, 20).Draw(rt, "pairs")

		unique := make(map[[2]string]bool)
		for _, pair := range pairs {
			outcome, err := svc.Record(ctx, user.ID, pair[0], pair[1])
			require.NoError(rt, err)
			if unique[pair] {
				require.Equal(rt, OutcomeAlreadyRecorded, outcome)
			} else {
				require.Equal(rt, OutcomeCreated, outcome)
				unique[pair] = true
			}

			outcome, err = svc.Record(ctx, user.ID, pair[0], pair[1])
			require.NoError(rt, err)
			require.Equal(rt, OutcomeAlreadyRecorded, outcome)
		}

		records, err := svc.List(ctx, user.ID)
		require.NoError(rt, err)
		require.Len(rt, records, len(unique))
	})
}
