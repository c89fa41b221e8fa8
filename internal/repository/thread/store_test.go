package thread

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iyunix/go-relay/internal/domain"
)

type memorySnapshotter struct {
	mu      sync.Mutex
	saved   []*domain.Thread
	saves   int
	loadErr error
	saveErr error
}

func (m *memorySnapshotter) Load(_ context.Context) ([]*domain.Thread, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.saved, nil
}

func (m *memorySnapshotter) Save(_ context.Context, threads []*domain.Thread) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.saved = make([]*domain.Thread, len(threads))
	for i, t := range threads {
		m.saved[i] = t.Clone()
	}
	return nil
}

func (m *memorySnapshotter) Close() error { return nil }

func (m *memorySnapshotter) setSaveErr(err error) {
	m.mu.Lock()
	m.saveErr = err
	m.mu.Unlock()
}

// steppingClock advances one second per call.
type steppingClock struct {
	mu  sync.Mutex
	cur time.Time
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cur = c.cur.Add(time.Second)
	return c.cur
}

func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%03d", n)
	}
}

func newTestStore(t *testing.T, snap *memorySnapshotter) *Store {
	t.Helper()
	clock := &steppingClock{cur: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	s, err := NewStore(context.Background(), snap, WithClock(clock.Now), WithIDGenerator(sequentialIDs()))
	require.NoError(t, err)
	return s
}

func TestStore_CreateWithoutInitialMessage(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, &memorySnapshotter{})

	created, err := s.Create(ctx, "", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultThreadTitle, created.Title)
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	got, err := s.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Messages)
	assert.NotNil(t, got.Messages)
}

func TestStore_CreateWithInitialMessageGeneratesFreshIDs(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, &memorySnapshotter{})

	created, err := s.Create(ctx, "Trip plans", &domain.NewMessage{Role: domain.RoleUser, Content: "hi", Model: "openai/gpt-4o"})
	require.NoError(t, err)

	got, err := s.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, got.Messages, 1)
	msg := got.Messages[0]
	assert.NotEmpty(t, msg.ID)
	assert.NotEqual(t, got.ID, msg.ID)
	assert.Equal(t, got.CreatedAt, msg.Timestamp)
	assert.Equal(t, "hi", msg.Content)
	assert.Equal(t, "openai/gpt-4o", msg.Model)
	assert.Equal(t, "Trip plans", got.Title)
}

func TestStore_AddMessageKeepsCallOrderAndBumpsUpdatedAt(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, &memorySnapshotter{})

	th, err := s.Create(ctx, "ordered", nil)
	require.NoError(t, err)

	var last *domain.Message
	contents := []string{"one", "two", "three", "four"}
	for i, c := range contents {
		role := domain.RoleUser
		if i%2 == 1 {
			role = domain.RoleAssistant
		}
		last, err = s.AddMessage(ctx, th.ID, domain.NewMessage{Role: role, Content: c})
		require.NoError(t, err)
	}

	threads, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, threads, 1)
	got := threads[0]
	require.Len(t, got.Messages, len(contents))
	for i, c := range contents {
		assert.Equal(t, c, got.Messages[i].Content)
	}
	assert.Equal(t, last.Timestamp, got.UpdatedAt)
	assert.True(t, !got.UpdatedAt.Before(got.CreatedAt))
}

func TestStore_AddMessageUnknownThread(t *testing.T) {
	s := newTestStore(t, &memorySnapshotter{})
	_, err := s.AddMessage(context.Background(), "missing", domain.NewMessage{Role: domain.RoleUser, Content: "x"})
	assert.ErrorIs(t, err, ErrThreadNotFound)
}

func TestStore_AddMessageRejectsUnknownRole(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, &memorySnapshotter{})
	th, err := s.Create(ctx, "", nil)
	require.NoError(t, err)

	_, err = s.AddMessage(ctx, th.ID, domain.NewMessage{Role: "tool", Content: "x"})
	assert.ErrorIs(t, err, ErrInvalidMessage)
}

func TestStore_TitleDerivedOnceFromFirstUserMessage(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, &memorySnapshotter{})
	th, err := s.Create(ctx, "", nil)
	require.NoError(t, err)

	content := "Explain quantum computing in simple terms and more text padding to exceed fifty characters total"
	_, err = s.AddMessage(ctx, th.ID, domain.NewMessage{Role: domain.RoleUser, Content: content})
	require.NoError(t, err)

	got, err := s.Get(ctx, th.ID)
	require.NoError(t, err)
	assert.Equal(t, content[:50]+"...", got.Title)

	_, err = s.AddMessage(ctx, th.ID, domain.NewMessage{Role: domain.RoleUser, Content: "A completely different question"})
	require.NoError(t, err)

	got, err = s.Get(ctx, th.ID)
	require.NoError(t, err)
	assert.Equal(t, content[:50]+"...", got.Title)
}

func TestStore_TitleIgnoresBlankAndNonUserMessages(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, &memorySnapshotter{})
	th, err := s.Create(ctx, "", nil)
	require.NoError(t, err)

	_, err = s.AddMessage(ctx, th.ID, domain.NewMessage{Role: domain.RoleAssistant, Content: "Hello there"})
	require.NoError(t, err)
	_, err = s.AddMessage(ctx, th.ID, domain.NewMessage{Role: domain.RoleUser, Content: "   \n"})
	require.NoError(t, err)

	got, err := s.Get(ctx, th.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultThreadTitle, got.Title)

	_, err = s.AddMessage(ctx, th.ID, domain.NewMessage{Role: domain.RoleUser, Content: "Short question"})
	require.NoError(t, err)
	got, err = s.Get(ctx, th.ID)
	require.NoError(t, err)
	assert.Equal(t, "Short question", got.Title)
}

func TestStore_TitleTruncatesOnRuneBoundary(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, &memorySnapshotter{})
	th, err := s.Create(ctx, "", nil)
	require.NoError(t, err)

	content := strings.Repeat("é", 60)
	_, err = s.AddMessage(ctx, th.ID, domain.NewMessage{Role: domain.RoleUser, Content: content})
	require.NoError(t, err)

	got, err := s.Get(ctx, th.ID)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("é", 50)+"...", got.Title)
}

func TestStore_DeleteTwiceReportsNotFound(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, &memorySnapshotter{})
	th, err := s.Create(ctx, "", nil)
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, th.ID))

	_, err = s.Get(ctx, th.ID)
	assert.ErrorIs(t, err, ErrThreadNotFound)
	assert.ErrorIs(t, s.Delete(ctx, th.ID), ErrThreadNotFound)
}

func TestStore_UpdateTitle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, &memorySnapshotter{})
	th, err := s.Create(ctx, "", nil)
	require.NoError(t, err)

	title := "Renamed"
	updated, err := s.Update(ctx, th.ID, domain.ThreadUpdate{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.True(t, updated.UpdatedAt.After(th.UpdatedAt))

	_, err = s.Update(ctx, "missing", domain.ThreadUpdate{Title: &title})
	assert.ErrorIs(t, err, ErrThreadNotFound)
}

func TestStore_ListOrdersByUpdatedAtDesc(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, &memorySnapshotter{})

	a, err := s.Create(ctx, "a", nil)
	require.NoError(t, err)
	b, err := s.Create(ctx, "b", nil)
	require.NoError(t, err)
	c, err := s.Create(ctx, "c", nil)
	require.NoError(t, err)

	_, err = s.AddMessage(ctx, a.ID, domain.NewMessage{Role: domain.RoleUser, Content: "bump"})
	require.NoError(t, err)

	threads, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, threads, 3)
	assert.Equal(t, []string{a.ID, c.ID, b.ID}, []string{threads[0].ID, threads[1].ID, threads[2].ID})
}

func TestStore_GetReturnsIndependentCopy(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, &memorySnapshotter{})
	th, err := s.Create(ctx, "", &domain.NewMessage{Role: domain.RoleUser, Content: "original"})
	require.NoError(t, err)

	got, err := s.Get(ctx, th.ID)
	require.NoError(t, err)
	got.Title = "mutated"
	got.Messages[0].Content = "mutated"
	got.Messages = append(got.Messages, domain.Message{ID: "x"})

	again, err := s.Get(ctx, th.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultThreadTitle, again.Title)
	require.Len(t, again.Messages, 1)
	assert.Equal(t, "original", again.Messages[0].Content)
}

func TestStore_FailedFlushLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	snap := &memorySnapshotter{}
	s := newTestStore(t, snap)
	th, err := s.Create(ctx, "", nil)
	require.NoError(t, err)

	snap.setSaveErr(errors.New("disk full"))

	_, err = s.AddMessage(ctx, th.ID, domain.NewMessage{Role: domain.RoleUser, Content: "lost"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	_, err = s.Create(ctx, "", nil)
	assert.ErrorIs(t, err, ErrStorageUnavailable)
	assert.ErrorIs(t, s.Delete(ctx, th.ID), ErrStorageUnavailable)

	got, err := s.Get(ctx, th.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Messages)
	assert.Equal(t, domain.DefaultThreadTitle, got.Title)

	threads, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, threads, 1)
}

func TestStore_HealthTracksConsecutiveFailures(t *testing.T) {
	ctx := context.Background()
	snap := &memorySnapshotter{}
	s, err := NewStore(ctx, snap, WithFailureThreshold(2))
	require.NoError(t, err)
	assert.True(t, s.Healthy())

	snap.setSaveErr(errors.New("read-only filesystem"))
	_, _ = s.Create(ctx, "", nil)
	assert.True(t, s.Healthy())
	_, _ = s.Create(ctx, "", nil)
	assert.False(t, s.Healthy())

	snap.setSaveErr(nil)
	_, err = s.Create(ctx, "", nil)
	require.NoError(t, err)
	assert.True(t, s.Healthy())
}

func TestStore_SnapshotMatchesMemory(t *testing.T) {
	ctx := context.Background()
	snap := &memorySnapshotter{}
	s := newTestStore(t, snap)

	a, err := s.Create(ctx, "a", nil)
	require.NoError(t, err)
	b, err := s.Create(ctx, "b", nil)
	require.NoError(t, err)
	_, err = s.AddMessage(ctx, a.ID, domain.NewMessage{Role: domain.RoleUser, Content: "hello"})
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, b.ID))

	require.Len(t, snap.saved, 1)
	assert.Equal(t, a.ID, snap.saved[0].ID)
	require.Len(t, snap.saved[0].Messages, 1)
	assert.Equal(t, 4, snap.saves)

	reloaded, err := NewStore(ctx, snap)
	require.NoError(t, err)
	got, err := reloaded.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Messages[0].Content)
}

func TestStore_LoadFailure(t *testing.T) {
	ctx := context.Background()
	snap := &memorySnapshotter{loadErr: errors.New("corrupt")}

	s, err := NewStore(ctx, snap)
	require.NoError(t, err)
	threads, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, threads)

	_, err = NewStore(ctx, snap, WithStrictLoad(true))
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}

func TestStore_IDsNeverReused(t *testing.T) {
	ctx := context.Background()
	ids := []string{"dup", "dup", "m1", "dup", "t2"}
	i := 0
	gen := func() string {
		id := ids[i]
		i++
		return id
	}
	s, err := NewStore(ctx, &memorySnapshotter{}, WithIDGenerator(gen))
	require.NoError(t, err)

	first, err := s.Create(ctx, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "dup", first.ID)

	msg, err := s.AddMessage(ctx, first.ID, domain.NewMessage{Role: domain.RoleUser, Content: "x"})
	require.NoError(t, err)
	assert.Equal(t, "m1", msg.ID)

	require.NoError(t, s.Delete(ctx, first.ID))
	second, err := s.Create(ctx, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "t2", second.ID)
}

func TestStore_ConcurrentAppendsAreNotLost(t *testing.T) {
	ctx := context.Background()
	snap := &memorySnapshotter{}
	s, err := NewStore(ctx, snap)
	require.NoError(t, err)

	a, err := s.Create(ctx, "a", nil)
	require.NoError(t, err)
	b, err := s.Create(ctx, "b", nil)
	require.NoError(t, err)

	const perThread = 25
	var wg sync.WaitGroup
	for _, id := range []string{a.ID, b.ID} {
		for i := 0; i < perThread; i++ {
			wg.Add(1)
			go func(id string, i int) {
				defer wg.Done()
				_, err := s.AddMessage(ctx, id, domain.NewMessage{Role: domain.RoleUser, Content: fmt.Sprintf("m%d", i)})
				assert.NoError(t, err)
			}(id, i)
		}
	}
	wg.Wait()

	for _, id := range []string{a.ID, b.ID} {
		got, err := s.Get(ctx, id)
		require.NoError(t, err)
		assert.Len(t, got.Messages, perThread)
	}
	for _, saved := range snap.saved {
		assert.Len(t, saved.Messages, perThread)
	}
}
