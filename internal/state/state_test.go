package state_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/rojitobot/internal/kv"
	"github.com/edgard/rojitobot/internal/state"
)

func TestConversationKeyFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, state.ConversationKey("group:-100123"), state.ConversationKeyFor(true, -100123, 42))
	assert.Equal(t, state.ConversationKey("user:42"), state.ConversationKeyFor(false, 42, 42))
}

func TestHistoryKeepsMostRecentMessages(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newMemStore()
	history := state.NewHistoryStore(store, nil)
	key := state.ConversationKeyFor(true, -1, 7)

	for i := 1; i <= 7; i++ {
		require.NoError(t, history.Append(ctx, key, state.Message{Role: state.RoleUser, Content: fmt.Sprintf("m%d", i)}))
	}

	got := history.Read(ctx, key)
	require.Len(t, got, state.HistoryLimit)
	for i, msg := range got {
		assert.Equal(t, fmt.Sprintf("m%d", i+3), msg.Content)
	}
	assert.Contains(t, store.value("history:group:-1"), `"role":"user"`)
}

func TestHistoryDegradesOnBadState(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("malformed payload reads empty and is replaced on append", func(t *testing.T) {
		t.Parallel()
		store := newMemStore()
		store.raw("history:user:1", "{not json")
		history := state.NewHistoryStore(store, nil)

		assert.Empty(t, history.Read(ctx, "user:1"))

		require.NoError(t, history.Append(ctx, "user:1", state.Message{Role: state.RoleUser, Content: "hola"}))
		assert.Equal(t, []state.Message{{Role: state.RoleUser, Content: "hola"}}, history.Read(ctx, "user:1"))
	})

	t.Run("store failure reads empty and fails append", func(t *testing.T) {
		t.Parallel()
		store := newMemStore()
		store.getErr = errUnavailable
		history := state.NewHistoryStore(store, nil)

		assert.Empty(t, history.Read(ctx, "user:1"))
		require.ErrorIs(t, history.Append(ctx, "user:1", state.Message{Role: state.RoleUser, Content: "x"}), errUnavailable)
		assert.Zero(t, store.putCount())
	})
}

func TestPreferenceStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newMemStore()
	prefs := state.NewPreferenceStore(store, nil, "es")

	assert.Equal(t, "es", prefs.GetLanguage(ctx, 10))

	require.NoError(t, prefs.SetLanguage(ctx, 10, "pt"))
	assert.Equal(t, "pt", prefs.GetLanguage(ctx, 10))
	assert.Equal(t, `"pt"`, store.value("language:10"))

	require.NoError(t, prefs.SetLanguage(ctx, 10, "ko"))
	assert.Equal(t, "ko", prefs.GetLanguage(ctx, 10))

	store.raw("language:11", `"fr"`)
	assert.Equal(t, "es", prefs.GetLanguage(ctx, 11))

	store.raw("language:12", `garbage`)
	assert.Equal(t, "es", prefs.GetLanguage(ctx, 12))
}

func TestEngagementIncrement(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	engagement := state.NewEngagementStore(newMemStore(), nil)

	const k = 12
	var last int64
	for range k {
		n, err := engagement.Increment(ctx, "ana")
		require.NoError(t, err)
		last = n
	}
	assert.Equal(t, int64(k), last)
	assert.Equal(t, []state.Standing{{Rank: 1, Username: "ana", Count: k}}, engagement.TopN(ctx, 3))
}

func TestEngagementTopN(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newMemStore()
	store.raw("leaderboard:global", `{"a":5,"b":5,"c":1,"d":9}`)
	engagement := state.NewEngagementStore(store, nil)

	tests := []struct {
		name string
		n    int
		want []state.Standing
	}{
		{
			name: "top three with tie broken by username",
			n:    3,
			want: []state.Standing{{Rank: 1, Username: "d", Count: 9}, {Rank: 2, Username: "a", Count: 5}, {Rank: 3, Username: "b", Count: 5}},
		},
		{
			name: "n larger than board",
			n:    10,
			want: []state.Standing{{Rank: 1, Username: "d", Count: 9}, {Rank: 2, Username: "a", Count: 5}, {Rank: 3, Username: "b", Count: 5}, {Rank: 4, Username: "c", Count: 1}},
		},
		{name: "zero", n: 0, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, engagement.TopN(ctx, tt.n))
		})
	}
}

func TestEngagementNoLostUpdateOnInterleavedWrite(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newMemStore()
	engagement := state.NewEngagementStore(store, nil)

	_, err := engagement.Increment(ctx, "bob")
	require.NoError(t, err)

	// Another writer increments "bob" between our read and our write.
	var once sync.Once
	store.beforePut = func(string) {
		once.Do(func() { store.raw("leaderboard:global", `{"bob":2}`) })
	}

	n, err := engagement.Increment(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.JSONEq(t, `{"ana":1,"bob":2}`, store.value("leaderboard:global"))
}

func TestEngagementConcurrentIncrements(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	engagement := state.NewEngagementStore(newMemStore(), nil, state.WithMaxRetries(200))

	const workers, perWorker = 8, 10
	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perWorker {
				_, err := engagement.Increment(ctx, fmt.Sprintf("user%d", w%2))
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	top := engagement.TopN(ctx, 2)
	require.Len(t, top, 2)
	assert.Equal(t, int64(workers*perWorker/2), top[0].Count)
	assert.Equal(t, int64(workers*perWorker/2), top[1].Count)
}

func TestMutationGivesUpAfterRetries(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	store.beforePut = func(key string) { store.raw(key, `{}`) }
	engagement := state.NewEngagementStore(store, nil, state.WithMaxRetries(2))

	_, err := engagement.Increment(context.Background(), "ana")
	require.ErrorIs(t, err, kv.ErrConflict)
	assert.Equal(t, 3, store.putCount())
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func TestRegistryTouch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	clk := &clock{now: base}
	registry := state.NewRegistry(newMemStore(), nil, state.WithClock(clk.Now))

	require.NoError(t, registry.Touch(ctx, state.Destination{ID: "-100", Kind: state.KindGroup, Title: "Fijas"}))

	clk.Set(base.Add(time.Hour))
	require.NoError(t, registry.Touch(ctx, state.Destination{ID: "-100", Kind: state.KindGroup}))

	groups := registry.List(ctx, state.KindGroup)
	require.Len(t, groups, 1)
	assert.True(t, base.Add(time.Hour).Equal(groups[0].LastActivity))
	assert.Equal(t, "Fijas", groups[0].Title)

	// A clock that moves backwards never rewinds the stored activity.
	clk.Set(base.Add(-time.Hour))
	require.NoError(t, registry.Touch(ctx, state.Destination{ID: "-100", Kind: state.KindGroup, Title: "Fijas VIP"}))

	groups = registry.List(ctx, state.KindGroup)
	require.Len(t, groups, 1)
	assert.True(t, base.Add(time.Hour).Equal(groups[0].LastActivity))
	assert.Equal(t, "Fijas VIP", groups[0].Title)

	assert.Empty(t, registry.List(ctx, state.KindDirect))
}

func TestRegistryPartitionsAndOrder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newMemStore()
	registry := state.NewRegistry(store, nil)

	for _, d := range []state.Destination{
		{ID: "-3", Kind: state.KindGroup},
		{ID: "-1", Kind: state.KindGroup},
		{ID: "77", Kind: state.KindDirect, Username: "ana"},
		{ID: "-2", Kind: state.KindGroup},
	} {
		require.NoError(t, registry.Touch(ctx, d))
	}

	var ids []string
	for _, d := range registry.List(ctx, state.KindGroup) {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []string{"-1", "-2", "-3"}, ids)

	direct := registry.List(ctx, state.KindDirect)
	require.Len(t, direct, 1)
	assert.Equal(t, "ana", direct[0].Username)

	assert.Contains(t, store.value("active_chats"), `"private":{"77"`)
	require.Error(t, registry.Touch(ctx, state.Destination{ID: "1", Kind: "channel"}))
	require.Error(t, registry.Touch(ctx, state.Destination{Kind: state.KindGroup}))
}

func TestRegistryPrune(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	clk := &clock{now: base}
	store := newMemStore()
	registry := state.NewRegistry(store, nil, state.WithClock(clk.Now))

	require.NoError(t, registry.Touch(ctx, state.Destination{ID: "-1", Kind: state.KindGroup}))
	require.NoError(t, registry.Touch(ctx, state.Destination{ID: "5", Kind: state.KindDirect}))
	clk.Set(base.Add(48 * time.Hour))
	require.NoError(t, registry.Touch(ctx, state.Destination{ID: "-2", Kind: state.KindGroup}))

	removed, err := registry.Prune(ctx, 0)
	require.NoError(t, err)
	assert.Zero(t, removed)

	puts := store.putCount()
	removed, err = registry.Prune(ctx, 72*time.Hour)
	require.NoError(t, err)
	assert.Zero(t, removed)
	assert.Equal(t, puts, store.putCount(), "no write when nothing expires")

	removed, err = registry.Prune(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	groups := registry.List(ctx, state.KindGroup)
	require.Len(t, groups, 1)
	assert.Equal(t, "-2", groups[0].ID)
	assert.Empty(t, registry.List(ctx, state.KindDirect))
}

func TestArtifactStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	artifacts := state.NewArtifactStore(newMemStore(), nil)

	_, ok := artifacts.Last(ctx)
	assert.False(t, ok)

	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, artifacts.Save(ctx, state.Artifact{ID: "a1", Content: "first", Timestamp: ts}))
	require.NoError(t, artifacts.Save(ctx, state.Artifact{ID: "a2", Content: "second", Timestamp: ts.Add(time.Hour)}))

	last, ok := artifacts.Last(ctx)
	require.True(t, ok)
	assert.Equal(t, "a2", last.ID)
	assert.Equal(t, "second", last.Content)
	assert.True(t, ts.Add(time.Hour).Equal(last.Timestamp))
}
