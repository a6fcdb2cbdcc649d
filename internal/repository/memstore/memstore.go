// Package memstore is an in-process repository.Store for development and
// tests.  Transactions are serialised by a single store-wide mutex and
// every write inside one is journalled so a failing transaction is rolled
// back in full.  The global lock means concurrent transactions never
// interleave: it does not model the per-row locking of the MySQL store,
// so lost compare-and-set races only occur here when a test injects them.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/suite-exchange/internal/model"
	"github.com/iliyamo/suite-exchange/internal/repository"
)

// Store keeps every table in maps keyed by id.
type Store struct {
	mu sync.Mutex

	seq map[string]uint64

	users        map[uint64]model.User
	suites       map[uint64]model.Suite
	applications map[uint64]model.SellerApplication
	listings     map[uint64]model.Listing
	messages     map[uint64]model.Message
	discussions  map[uint64]model.Discussion
	replies      map[uint64]model.DiscussionReply
	audit        []model.AuditEvent
}

var _ repository.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		seq:          map[string]uint64{},
		users:        map[uint64]model.User{},
		suites:       map[uint64]model.Suite{},
		applications: map[uint64]model.SellerApplication{},
		listings:     map[uint64]model.Listing{},
		messages:     map[uint64]model.Message{},
		discussions:  map[uint64]model.Discussion{},
		replies:      map[uint64]model.DiscussionReply{},
	}
}

// InTx runs fn with exclusive access.  Writes are undone when fn fails.
func (s *Store) InTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := &memTx{s: s}
	if err := fn(tx); err != nil {
		tx.rollback()
		return err
	}
	return nil
}

// View runs fn with exclusive access.  fn should not write; if it does and
// fails, the writes are undone like in InTx.
func (s *Store) View(ctx context.Context, fn func(tx repository.Tx) error) error {
	return s.InTx(ctx, fn)
}

// AppendAudit appends e to the trail.
func (s *Store) AppendAudit(ctx context.Context, e *model.AuditEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = s.next("audit")
	s.audit = append(s.audit, *e)
	return nil
}

// AuditEvents returns a copy of the trail in append order.
func (s *Store) AuditEvents() []model.AuditEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.AuditEvent(nil), s.audit...)
}

// AddSuite seeds a suite and returns it with its id.
func (s *Store) AddSuite(st model.Suite) model.Suite {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st.ID == 0 {
		st.ID = s.next("suites")
	}
	s.suites[st.ID] = st
	return st
}

// AddUser seeds a user and returns it with its id.
func (s *Store) AddUser(u model.User) model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.ID = s.next("users")
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	s.users[u.ID] = u
	return u
}

// SeedSuites installs the default venue suites used in dev mode.
func (s *Store) SeedSuites() {
	for _, st := range []model.Suite{
		{Area: model.AreaEastTerrace, Number: 1, DisplayName: "East Terrace 1", Capacity: 12},
		{Area: model.AreaEastTerrace, Number: 2, DisplayName: "East Terrace 2", Capacity: 12},
		{Area: model.AreaWestTerrace, Number: 1, DisplayName: "West Terrace 1", Capacity: 16},
		{Area: model.AreaLowerBowl, Number: 10, DisplayName: "Lower Bowl 10", Capacity: 20},
		{Area: model.AreaUpperBowl, Number: 30, DisplayName: "Upper Bowl 30"},
	} {
		s.AddSuite(st)
	}
}

func (s *Store) next(table string) uint64 {
	s.seq[table]++
	return s.seq[table]
}

// memTx implements repository.Tx on the locked store.
type memTx struct {
	s    *Store
	undo []func()
}

func (t *memTx) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

// put stores v under id in m and journals the previous state.
func put[V any](t *memTx, m map[uint64]V, id uint64, v V) {
	old, existed := m[id]
	t.undo = append(t.undo, func() {
		if existed {
			m[id] = old
		} else {
			delete(m, id)
		}
	})
	m[id] = v
}

// nextID allocates an id; the sequence is restored on rollback.
func (t *memTx) nextID(table string) uint64 {
	prev := t.s.seq[table]
	t.undo = append(t.undo, func() { t.s.seq[table] = prev })
	return t.s.next(table)
}

func sortByID[V any](out []V, id func(V) uint64) {
	sort.Slice(out, func(i, j int) bool { return id(out[i]) < id(out[j]) })
}

func page[V any](in []V, limit, offset int) []V {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(in) {
		return []V{}
	}
	end := offset + limit
	if end > len(in) {
		end = len(in)
	}
	return in[offset:end]
}
