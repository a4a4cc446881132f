// Package docstore provides the transactional document store typemerge
// operates on: element types, placed instances, and their annotations,
// persisted in a BadgerDB directory.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/dbsmedya/typemerge/internal/logger"
)

// Session errors.
var (
	// ErrSessionClosed is returned when the session has been closed.
	ErrSessionClosed = errors.New("document session is closed")
	// ErrNoTransaction is returned when a mutation runs without an open transaction.
	ErrNoTransaction = errors.New("no open transaction")
	// ErrNestedTransaction is returned when a scope opens inside an active transaction.
	ErrNestedTransaction = errors.New("cannot open a scope inside an active transaction")
	// ErrScopeClosed is returned when a committed or rolled back scope is reused.
	ErrScopeClosed = errors.New("scope already closed")
	// ErrScopeNotCurrent is returned when a scope is closed out of nesting order.
	ErrScopeNotCurrent = errors.New("scope is not the innermost open scope")
	// ErrOpenScopes is returned when an operation requires all scopes closed.
	ErrOpenScopes = errors.New("open scopes remain")
	// ErrNotFound is returned when a record id does not resolve.
	ErrNotFound = errors.New("record not found")
	// ErrInstanceLocked is returned when a locked instance refuses reassignment.
	ErrInstanceLocked = errors.New("instance is locked")
	// ErrFamilyMismatch is returned when a reassignment crosses type families.
	ErrFamilyMismatch = errors.New("type family mismatch")
)

// Options configures a document session.
type Options struct {
	Path       string         // Store directory
	InMemory   bool           // Ephemeral store, ignores Path
	SyncWrites bool           // Fsync every store write
	Logger     *logger.Logger // Defaults to logger.NewDefault()
}

// Session is an open document. All access goes through one session; an
// internal mutex serializes calls and Badger's directory lock keeps other
// processes out.
type Session struct {
	mu sync.Mutex

	db  *badger.DB
	seq *badger.Sequence
	log *logger.Logger

	path      string
	persisted documentState // image currently on disk
	root      documentState // committed working state
	scopes    []*Scope      // open scopes, innermost last
	closed    bool
}

// DocumentStats summarizes the records in the current state.
type DocumentStats struct {
	Types       int
	Instances   int
	Annotations int
}

// Open opens the document store at opts.Path, loads the full record set
// into memory and claims the persistent id sequence. Opening retries with
// backoff while another process holds the store directory.
func Open(ctx context.Context, opts Options) (*Session, error) {
	if !opts.InMemory && opts.Path == "" {
		return nil, fmt.Errorf("document path is required")
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewDefault()
	}

	db, err := openWithRetry(ctx, opts.badgerOptions(), log)
	if err != nil {
		return nil, fmt.Errorf("failed to open document store: %w", err)
	}

	seq, err := db.GetSequence(sequenceKey, sequenceBandwidth)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to claim id sequence: %w", err)
	}

	s := &Session{
		db:   db,
		seq:  seq,
		log:  log,
		path: opts.Path,
	}

	if err := s.load(); err != nil {
		_ = seq.Release()
		_ = db.Close()
		return nil, fmt.Errorf("failed to load document: %w", err)
	}
	s.persisted = s.root.clone()

	stats := s.root.stats()
	log.Infow("Document opened",
		"path", opts.Path,
		"types", stats.Types,
		"instances", stats.Instances,
		"annotations", stats.Annotations,
	)

	return s, nil
}

func (o Options) badgerOptions() badger.Options {
	var opts badger.Options
	if o.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(o.Path)
	}

	log := o.Logger
	if log == nil {
		log = logger.NewDefault()
	}

	return opts.
		WithSyncWrites(o.SyncWrites).
		WithLogger(badgerLogger{log: log})
}

// openWithRetry attempts to open the store with exponential backoff. The
// usual contender is another typemerge run holding the directory lock.
func openWithRetry(ctx context.Context, opts badger.Options, log *logger.Logger) (*badger.DB, error) {
	var db *badger.DB
	var err error

	maxRetries := 3
	backoff := time.Second

	for i := 0; i < maxRetries; i++ {
		db, err = badger.Open(opts)
		if err == nil {
			return db, nil
		}

		if i < maxRetries-1 {
			log.Warnw("Document store open failed, retrying",
				"error", err,
				"backoff", backoff,
			)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
				backoff *= 2 // Exponential backoff
			}
		}
	}

	return nil, fmt.Errorf("failed after %d retries: %w", maxRetries, err)
}

// Close releases the id sequence and the store. Closing twice is a no-op.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if len(s.scopes) > 0 {
		s.log.Warnw("Closing document with open scopes", "count", len(s.scopes))
	}

	var errs []error

	if s.seq != nil {
		if err := s.seq.Release(); err != nil {
			errs = append(errs, fmt.Errorf("sequence release: %w", err))
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store close: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing document: %v", errs)
	}
	return nil
}

// Path returns the store directory the session was opened on.
func (s *Session) Path() string {
	return s.path
}

// Stats returns record counts for the current state.
func (s *Session) Stats() DocumentStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.top().stats()
}

// badgerLogger adapts the application logger to Badger's Logger interface.
// Badger's own info output is chatty at open time, so it logs at debug.
type badgerLogger struct {
	log *logger.Logger
}

func (b badgerLogger) Errorf(format string, args ...interface{}) {
	b.log.Errorf(strings.TrimSpace(format), args...)
}

func (b badgerLogger) Warningf(format string, args ...interface{}) {
	b.log.Warnf(strings.TrimSpace(format), args...)
}

func (b badgerLogger) Infof(format string, args ...interface{}) {
	b.log.Debugf(strings.TrimSpace(format), args...)
}

func (b badgerLogger) Debugf(format string, args ...interface{}) {
	b.log.Debugf(strings.TrimSpace(format), args...)
}
