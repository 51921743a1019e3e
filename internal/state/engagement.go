package state

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/edgard/rojitobot/internal/kv"
)

// Standing is one leaderboard row.
type Standing struct {
	Rank     int
	Username string
	Count    int64
}

// EngagementStore keeps the global per-username message counters.
type EngagementStore struct {
	rec *record
}

// NewEngagementStore creates an EngagementStore on top of store.
func NewEngagementStore(store kv.Store, log *slog.Logger, opts ...Option) *EngagementStore {
	return &EngagementStore{rec: newRecord(store, log, "engagement_store", opts)}
}

// Increment adds one to username's counter and returns the new count.
func (e *EngagementStore) Increment(ctx context.Context, username string) (int64, error) {
	board, err := mutate(ctx, e.rec, leaderboardKey, func(counts *map[string]int64) error {
		if *counts == nil {
			*counts = make(map[string]int64)
		}
		(*counts)[username]++
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("increment %q: %w", username, err)
	}
	return board[username], nil
}

// TopN returns the n highest counters, ties ordered by username.
func (e *EngagementStore) TopN(ctx context.Context, n int) []Standing {
	if n <= 0 {
		return nil
	}

	counts := read[map[string]int64](ctx, e.rec, leaderboardKey)
	rows := make([]Standing, 0, len(counts))
	for user, count := range counts {
		rows = append(rows, Standing{Username: user, Count: count})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Username < rows[j].Username
	})

	if len(rows) > n {
		rows = rows[:n]
	}
	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows
}
