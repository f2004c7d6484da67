package services

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/config"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/auditlog"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/users"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func expectCommits(mock sqlmock.Sqlmock, n int) {
	for i := 0; i < n; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
	}
}

func testConfig() *config.Config {
	var c config.Config
	c.LoadDefaults()
	c.Argon2Time = 1
	c.Argon2MemoryKiB = 1024
	c.Argon2Threads = 1
	c.FailureWindow = 10 * time.Minute
	c.MaxFailures = 3
	c.RehashCountThreshold = 3
	c.SessionTTL = 60 * time.Minute
	c.SessionRolloverThreshold = 30 * time.Minute
	c.SessionRolloverGrace = 30 * time.Second
	c.StoreTimeout = 0
	return &c
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// --- users ---

type fakeUsersRepo struct {
	mu    sync.Mutex
	users map[string]models.User
	err   error

	// rowLocks makes GetForUpdate take a per-row lock that Update releases,
	// like SELECT ... FOR UPDATE held until the row is written back. Only
	// for tests where every locking read is followed by an Update.
	rowLocks bool
	locks    map[string]*sync.Mutex
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{users: map[string]models.User{}, locks: map[string]*sync.Mutex{}}
}

func (f *fakeUsersRepo) rowLock(id string) *sync.Mutex {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.locks[id]
	if !ok {
		l = &sync.Mutex{}
		f.locks[id] = l
	}
	return l
}

func (f *fakeUsersRepo) Create(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.users[u.ID]; ok {
		return common.ErrConflict
	}
	f.users[u.ID] = *u
	return nil
}

func (f *fakeUsersRepo) Get(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

func (f *fakeUsersRepo) GetForUpdate(ctx context.Context, id string) (*models.User, error) {
	if f.rowLocks {
		f.rowLock(id).Lock()
	}
	return f.Get(ctx, id)
}

func (f *fakeUsersRepo) Update(_ context.Context, u *models.User) error {
	if f.rowLocks {
		defer f.rowLock(u.ID).Unlock()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.users[u.ID]; !ok {
		return common.ErrorNotFound
	}
	f.users[u.ID] = *u
	return nil
}

func (f *fakeUsersRepo) Delete(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	_, ok := f.users[id]
	delete(f.users, id)
	return ok, nil
}

func (f *fakeUsersRepo) List(_ context.Context, flt models.UserFilter) ([]*models.User, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, 0, f.err
	}
	var all []*models.User
	for _, u := range f.users {
		u := u
		if flt.IDContains != "" && !strings.Contains(u.ID, flt.IDContains) {
			continue
		}
		if flt.IsLocked != nil && u.IsLocked != *flt.IsLocked {
			continue
		}
		if flt.Role != "" && u.Role != flt.Role {
			continue
		}
		all = append(all, &u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	start := (flt.Page - 1) * flt.PerPage
	if start > len(all) {
		start = len(all)
	}
	end := start + flt.PerPage
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], len(all), nil
}

func (f *fakeUsersRepo) ListLocked(ctx context.Context) ([]*models.User, error) {
	locked := true
	list, _, err := f.List(ctx, models.UserFilter{Page: 1, PerPage: 1 << 20, IsLocked: &locked})
	return list, err
}

func (f *fakeUsersRepo) CountLocked(ctx context.Context) (int, error) {
	list, err := f.ListLocked(ctx)
	return len(list), err
}

func (f *fakeUsersRepo) get(id string) models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[id]
}

// --- sessions ---

type fakeSessionsRepo struct {
	mu       sync.Mutex
	sessions map[string]models.Session
	err      error
}

func newFakeSessionsRepo() *fakeSessionsRepo {
	return &fakeSessionsRepo{sessions: map[string]models.Session{}}
}

func (f *fakeSessionsRepo) Create(_ context.Context, s *models.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sessions[s.ID] = *s
	return nil
}

func (f *fakeSessionsRepo) FindForUpdate(_ context.Context, id string) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.sessions[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &s, nil
}

func (f *fakeSessionsRepo) Supersede(_ context.Context, id, replacedBy string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.sessions[id]
	s.ReplacedBy = replacedBy
	s.ExpiresAt = expiresAt
	f.sessions[id] = s
	return nil
}

func (f *fakeSessionsRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	delete(f.sessions, id)
	return nil
}

func (f *fakeSessionsRepo) DeleteReplaced(_ context.Context, replacedBy string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	var n int64
	for id, s := range f.sessions {
		if s.ReplacedBy == replacedBy {
			delete(f.sessions, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeSessionsRepo) DeleteByUser(_ context.Context, userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	var n int64
	for id, s := range f.sessions {
		if s.UserID == userID {
			delete(f.sessions, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeSessionsRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	var n int64
	for id, s := range f.sessions {
		if s.Expired(now) {
			delete(f.sessions, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeSessionsRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sessions)
}

// --- audit log ---

type fakeAuditRepo struct {
	mu        sync.Mutex
	entries   []*models.AuditEntry
	appendErr error
	err       error
}

func (f *fakeAuditRepo) Append(_ context.Context, e *models.AuditEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	cp := *e
	f.entries = append(f.entries, &cp)
	return nil
}

func (f *fakeAuditRepo) List(_ context.Context, flt models.AuditFilter) ([]*models.AuditEntry, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, 0, f.err
	}
	return f.entries, len(f.entries), nil
}

func (f *fakeAuditRepo) ListBefore(_ context.Context, cutoff time.Time) ([]*models.AuditEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []*models.AuditEntry
	for _, e := range f.entries {
		if e.Timestamp.Before(cutoff) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeAuditRepo) DeleteBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	var keep []*models.AuditEntry
	var n int64
	for _, e := range f.entries {
		if e.Timestamp.Before(cutoff) {
			n++
			continue
		}
		keep = append(keep, e)
	}
	f.entries = keep
	return n, nil
}

func (f *fakeAuditRepo) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

// --- manager ---

type fakeRepoManager struct {
	u *fakeUsersRepo
	s *fakeSessionsRepo
	a *fakeAuditRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{u: newFakeUsersRepo(), s: newFakeSessionsRepo(), a: &fakeAuditRepo{}}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository              { return m.u }
func (m *fakeRepoManager) Sessions(dbx.DBTX) sessions.Repository        { return m.s }
func (m *fakeRepoManager) AuditLog(dbx.DBTX) auditlog.Repository        { return m.a }

// --- audit recorder ---

type recordingAuditor struct {
	mu      sync.Mutex
	entries []models.AuditEntry
}

func (r *recordingAuditor) Record(_ context.Context, e models.AuditEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
}

func (r *recordingAuditor) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Action)
	}
	return out
}

func (r *recordingAuditor) last() models.AuditEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries[len(r.entries)-1]
}

var nopLogger = logging.Nop()
