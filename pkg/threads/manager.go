package threads

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/tendril/internal/logging"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/ports"
)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates thread access, ensuring safe concurrent operations.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store ports.ThreadStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker ports.DistributedLocker // Optional distributed locker
	logger *slog.Logger            // Logger for internal events (like deferred errors)
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a new thread Manager with the given persistence store.
func NewManager(store ports.ThreadStore, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		locks:  make(map[string]*lockEntry),
		logger: logging.NewNop(), // Default to no-op
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(threadID) after
// unlocking.
func (m *Manager) acquire(threadID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[threadID]
	if !exists {
		entry = &lockEntry{}
		m.locks[threadID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(threadID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[threadID]
	if !exists {
		return // Should not happen if paired correctly
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, threadID)
	}
}

// Load retrieves an existing thread record from the store.
func (m *Manager) Load(ctx context.Context, threadID string) (*domain.ThreadRecord, error) {
	var record *domain.ThreadRecord
	err := m.WithLock(ctx, threadID, func(ctx context.Context) error {
		var err error
		record, err = m.store.Load(ctx, threadID)
		return err
	})
	return record, err
}

// LoadOrStart tries to load a thread. If not found, it initializes a new one
// bound to the given graph. An empty threadID starts a fresh thread under a
// generated UUID; the returned record carries the id.
func (m *Manager) LoadOrStart(ctx context.Context, threadID, graph string) (*domain.ThreadRecord, error) {
	if threadID == "" {
		threadID = uuid.NewString()
	}

	var record *domain.ThreadRecord
	err := m.WithLock(ctx, threadID, func(ctx context.Context) error {
		var err error
		record, err = m.store.Load(ctx, threadID)
		if err == nil {
			return nil
		}

		if !errors.Is(err, domain.ErrThreadNotFound) {
			return fmt.Errorf("failed to check thread existence: %w", err)
		}

		// Not found, create new
		rec := domain.NewThreadRecord(threadID, graph)
		record = rec

		// Persist immediately to reserve the ID
		if err := m.store.Save(ctx, threadID, record); err != nil {
			return fmt.Errorf("failed to initialize thread: %w", err)
		}
		return nil
	})
	return record, err
}

// Touch records one completed turn on the thread: it bumps the turn counter,
// remembers the prompt, and persists, all under the thread lock.
func (m *Manager) Touch(ctx context.Context, threadID, prompt string) error {
	return m.WithLock(ctx, threadID, func(ctx context.Context) error {
		record, err := m.store.Load(ctx, threadID)
		if err != nil {
			return err
		}
		record.Touch(prompt)
		return m.store.Save(ctx, threadID, record)
	})
}

// Save persists the thread record.
func (m *Manager) Save(ctx context.Context, threadID string, record *domain.ThreadRecord) error {
	return m.WithLock(ctx, threadID, func(ctx context.Context) error {
		return m.store.Save(ctx, threadID, record)
	})
}

// Delete removes the thread from the store.
func (m *Manager) Delete(ctx context.Context, threadID string) error {
	return m.WithLock(ctx, threadID, func(ctx context.Context) error {
		return m.store.Delete(ctx, threadID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying thread store.
func (m *Manager) Store() ports.ThreadStore {
	return m.store
}

// WithLock executes a function while holding the lock for the thread.
func (m *Manager) WithLock(ctx context.Context, threadID string, fn func(context.Context) error) error {
	entry := m.acquire(threadID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(threadID)
	}()

	// Distributed Locking
	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, threadID, 30*time.Second)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"thread_id", threadID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
