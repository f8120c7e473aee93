package querylog

import (
	"context"
	"strings"
	"testing"
	"time"

	"ecourts-casestatus/internal/chrono"
	"ecourts-casestatus/lib/testutil"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (Store, context.Context) {
	ctx := testutil.Context(t, time.Second*5)
	store, err := NewStore(ctx, testutil.OpenMemoryDB(t, ""), chrono.FixedTime{At: time.Date(2025, 4, 2, 9, 0, 0, 0, time.UTC)})
	if err != nil {
		t.Fatal(err)
	}
	return store, ctx
}

func TestStore(t *testing.T) {
	store, ctx := newTestStore(t)

	{
		entries, err := store.List(ctx, DEFAULT_LIMIT)
		require.NoError(t, err)
		require.Len(t, entries, 0)

		stats, err := store.Stats(ctx)
		require.NoError(t, err)
		if diff := cmp.Diff(Stats{MostSearched: []StateCount{}}, stats); diff != "" {
			t.Fatal(diff)
		}
	}

	base := time.Date(2025, 4, 1, 10, 0, 0, 0, chrono.IST())
	inserts := []Entry{
		{Timestamp: base, State: "Himachal Pradesh", District: "Shimla", CaseNumber: "CS 133/2025", Status: STATUS_SUCCESS, RawJsonResponse: `{"success":true}`},
		{Timestamp: base.Add(time.Minute), State: "Himachal Pradesh", District: "Kullu", CaseNumber: "CS 7/2023", Status: STATUS_FAILED},
		{Timestamp: base.Add(2 * time.Minute), State: "Maharashtra", District: "Pune", CaseNumber: "RCA 1/2020", Status: STATUS_SUCCESS},
	}
	for _, entry := range inserts {
		_, err := store.Insert(ctx, entry)
		require.NoError(t, err)
	}

	{
		entries, err := store.List(ctx, DEFAULT_LIMIT)
		require.NoError(t, err)
		require.Len(t, entries, 3)
		require.Equal(t, "RCA 1/2020", entries[0].CaseNumber)
		require.Equal(t, "CS 133/2025", entries[2].CaseNumber)
		require.True(t, base.Equal(entries[2].Timestamp))
		require.Equal(t, `{"success":true}`, entries[2].RawJsonResponse)
		require.Equal(t, "", entries[1].RawJsonResponse)

		limited, err := store.List(ctx, 1)
		require.NoError(t, err)
		require.Len(t, limited, 1)
		require.Equal(t, entries[0].Id, limited[0].Id)
	}

	{
		stats, err := store.Stats(ctx)
		require.NoError(t, err)
		if diff := cmp.Diff(Stats{
			TotalQueries:      3,
			SuccessfulQueries: 2,
			FailedQueries:     1,
			SuccessRate:       66.67,
			MostSearched: []StateCount{
				{State: "Himachal Pradesh", Count: 2},
				{State: "Maharashtra", Count: 1},
			},
		}, stats); diff != "" {
			t.Fatal(diff)
		}
	}

	{
		deleted, err := store.Reset(ctx)
		require.NoError(t, err)
		require.Equal(t, int64(3), deleted)

		entries, err := store.List(ctx, DEFAULT_LIMIT)
		require.NoError(t, err)
		require.Len(t, entries, 0)
	}
}

func TestListLimit(t *testing.T) {
	store, ctx := newTestStore(t)

	for _, limit := range []int{0, -1, MAX_LIMIT + 1} {
		_, err := store.List(ctx, limit)
		require.ErrorIs(t, err, ErrInvalidLimit)
	}
	_, err := store.List(ctx, MAX_LIMIT)
	require.NoError(t, err)
}

func TestInsertDefaults(t *testing.T) {
	store, ctx := newTestStore(t)

	raw := strings.Repeat("é", MAX_RAW_RESPONSE)
	id, err := store.Insert(ctx, Entry{State: "Goa", RawJsonResponse: raw})
	require.NoError(t, err)
	require.Equal(t, int64(1), id)

	entries, err := store.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	entry := entries[0]
	require.Equal(t, STATUS_FAILED, entry.Status)
	require.True(t, time.Date(2025, 4, 2, 9, 0, 0, 0, time.UTC).Equal(entry.Timestamp))
	require.Equal(t, MAX_RAW_RESPONSE, len(entry.RawJsonResponse))
	require.True(t, strings.HasPrefix(raw, entry.RawJsonResponse))
}

func TestStatusOf(t *testing.T) {
	require.Equal(t, STATUS_SUCCESS, StatusOf(true))
	require.Equal(t, STATUS_FAILED, StatusOf(false))
}
