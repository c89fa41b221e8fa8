// File: internal/repository/thread/store.go
package thread

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/lithammer/shortuuid/v4"

	"github.com/iyunix/go-relay/internal/domain"
)

const (
	titleMaxRunes           = 50
	titleTruncationMarker   = "..."
	defaultFailureThreshold = 3
)

// Store keeps every thread in memory and flushes the whole collection
// through a Snapshotter on each mutation. All access is serialized by mu;
// a mutation is acknowledged only after its snapshot has been saved, and
// a failed save leaves the in-memory state untouched.
type Store struct {
	mu      sync.Mutex
	threads map[string]*domain.Thread // entries are replaced, never mutated
	order   []string                  // creation order, the snapshot layout
	issued  map[string]struct{}       // every id handed out or loaded

	snap     Snapshotter
	logger   Logger
	observer WriteObserver
	now      func() time.Time
	newID    func() string

	strictLoad       bool
	failures         int
	failureThreshold int
}

// Option configures a Store.
type Option func(*Store)

func WithLogger(l Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

func WithWriteObserver(o WriteObserver) Option {
	return func(s *Store) { s.observer = o }
}

// WithStrictLoad makes NewStore fail on an unreadable snapshot instead of
// starting empty.
func WithStrictLoad(strict bool) Option {
	return func(s *Store) { s.strictLoad = strict }
}

// WithFailureThreshold sets how many consecutive failed flushes mark the
// store unhealthy.
func WithFailureThreshold(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.failureThreshold = n
		}
	}
}

// NewStore loads the current snapshot and returns a ready store.
func NewStore(ctx context.Context, snap Snapshotter, opts ...Option) (*Store, error) {
	s := &Store{
		threads:          make(map[string]*domain.Thread),
		issued:           make(map[string]struct{}),
		snap:             snap,
		logger:           nopLogger{},
		now:              time.Now,
		newID:            shortuuid.New,
		failureThreshold: defaultFailureThreshold,
	}
	for _, opt := range opts {
		opt(s)
	}

	loaded, err := snap.Load(ctx)
	if err != nil {
		if s.strictLoad {
			return nil, &StorageError{Op: "load", Err: err}
		}
		s.logger.Warn("could not load threads, starting empty", "error", err)
		loaded = nil
	}

	for _, t := range loaded {
		if t == nil || t.ID == "" {
			continue
		}
		if _, dup := s.threads[t.ID]; dup {
			s.logger.Warn("duplicate thread id in snapshot, keeping first", "thread_id", t.ID)
			continue
		}
		c := t.Clone()
		if c.Messages == nil {
			c.Messages = []domain.Message{}
		}
		s.threads[c.ID] = c
		s.order = append(s.order, c.ID)
		s.issued[c.ID] = struct{}{}
		for _, m := range c.Messages {
			s.issued[m.ID] = struct{}{}
		}
	}
	s.logger.Info("thread store ready", "threads", len(s.order))
	return s, nil
}

// List returns every thread, most recently active first.
func (s *Store) List(ctx context.Context) ([]*domain.Thread, error) {
	s.mu.Lock()
	out := make([]*domain.Thread, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.threads[id].Clone())
	}
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.UpdatedAt.Equal(b.UpdatedAt) {
			return a.UpdatedAt.After(b.UpdatedAt)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return out, nil
}

// Get returns a deep copy of the thread.
func (s *Store) Get(ctx context.Context, id string) (*domain.Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.threads[id]
	if !ok {
		return nil, ErrThreadNotFound
	}
	return t.Clone(), nil
}

// Messages returns a copy of the thread's messages, or an empty slice when
// the thread does not exist.
func (s *Store) Messages(ctx context.Context, threadID string) ([]domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.threads[threadID]
	if !ok {
		return []domain.Message{}, nil
	}
	out := make([]domain.Message, len(t.Messages))
	copy(out, t.Messages)
	return out, nil
}

// Create allocates a thread, optionally seeded with one message.
func (s *Store) Create(ctx context.Context, title string, initial *domain.NewMessage) (*domain.Thread, error) {
	if initial != nil && !initial.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidMessage, initial.Role)
	}
	if title == "" {
		title = domain.DefaultThreadTitle
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	t := &domain.Thread{
		ID:        s.nextID(),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  []domain.Message{},
	}
	if initial != nil {
		t.Messages = append(t.Messages, domain.Message{
			ID:        s.nextID(),
			Role:      initial.Role,
			Content:   initial.Content,
			Timestamp: now,
			Model:     initial.Model,
		})
	}

	if err := s.commit(ctx, "create", t, ""); err != nil {
		return nil, err
	}
	return t.Clone(), nil
}

// Update applies a partial update and bumps UpdatedAt.
func (s *Store) Update(ctx context.Context, id string, update domain.ThreadUpdate) (*domain.Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.threads[id]
	if !ok {
		return nil, ErrThreadNotFound
	}
	next := cur.Clone()
	if update.Title != nil {
		next.Title = *update.Title
	}
	next.UpdatedAt = s.tick(cur.UpdatedAt)

	if err := s.commit(ctx, "update", next, ""); err != nil {
		return nil, err
	}
	return next.Clone(), nil
}

// Delete removes the thread permanently.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.threads[id]; !ok {
		return ErrThreadNotFound
	}
	return s.commit(ctx, "delete", nil, id)
}

// AddMessage appends a message, bumps UpdatedAt to the message timestamp
// and derives the title from the first non-blank user message.
func (s *Store) AddMessage(ctx context.Context, threadID string, msg domain.NewMessage) (*domain.Message, error) {
	if !msg.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidMessage, msg.Role)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.threads[threadID]
	if !ok {
		return nil, ErrThreadNotFound
	}

	m := domain.Message{
		ID:        s.nextID(),
		Role:      msg.Role,
		Content:   msg.Content,
		Timestamp: s.tick(cur.UpdatedAt),
		Model:     msg.Model,
	}
	next := cur.Clone()
	next.Messages = append(next.Messages, m)
	next.UpdatedAt = m.Timestamp
	if next.Title == domain.DefaultThreadTitle && m.Role == domain.RoleUser && strings.TrimSpace(m.Content) != "" {
		next.Title = deriveTitle(m.Content)
	}

	if err := s.commit(ctx, "add_message", next, ""); err != nil {
		return nil, err
	}
	return &m, nil
}

// Healthy reports false once the backing medium has failed
// failureThreshold times in a row.
func (s *Store) Healthy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures < s.failureThreshold
}

// Close releases the backing medium.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Close()
}

// commit saves the collection with put replacing (or adding) one thread
// and removeID dropped, then applies the same change in memory. Must be
// called with mu held.
func (s *Store) commit(ctx context.Context, op string, put *domain.Thread, removeID string) error {
	snapshot := make([]*domain.Thread, 0, len(s.order)+1)
	added := put != nil
	for _, id := range s.order {
		switch {
		case id == removeID:
			continue
		case put != nil && id == put.ID:
			snapshot = append(snapshot, put)
			added = false
		default:
			snapshot = append(snapshot, s.threads[id])
		}
	}
	if added {
		snapshot = append(snapshot, put)
	}

	start := time.Now()
	err := s.snap.Save(ctx, snapshot)
	if s.observer != nil {
		s.observer.ObserveWrite(op, time.Since(start).Seconds(), err)
	}
	if err != nil {
		s.failures++
		if s.failures >= s.failureThreshold {
			s.logger.Error("thread storage failing repeatedly", "op", op, "consecutive_failures", s.failures, "error", err)
		} else {
			s.logger.Warn("thread storage write failed", "op", op, "error", err)
		}
		return &StorageError{Op: op, Err: err}
	}
	s.failures = 0

	if removeID != "" {
		delete(s.threads, removeID)
		for i, id := range s.order {
			if id == removeID {
				s.order = append(s.order[:i:i], s.order[i+1:]...)
				break
			}
		}
	}
	if put != nil {
		if added {
			s.order = append(s.order, put.ID)
		}
		s.threads[put.ID] = put
	}
	return nil
}

// nextID draws a fresh id that has never been issued by this store.
func (s *Store) nextID() string {
	for {
		id := s.newID()
		if _, taken := s.issued[id]; taken || id == "" {
			continue
		}
		s.issued[id] = struct{}{}
		return id
	}
}

// tick returns the current time, never earlier than prev.
func (s *Store) tick(prev time.Time) time.Time {
	now := s.now().UTC()
	if now.Before(prev) {
		return prev
	}
	return now
}

func deriveTitle(content string) string {
	if utf8.RuneCountInString(content) <= titleMaxRunes {
		return content
	}
	runes := []rune(content)
	return string(runes[:titleMaxRunes]) + titleTruncationMarker
}
