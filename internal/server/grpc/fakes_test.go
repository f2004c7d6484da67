package grpc

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/services"
)

type fakeUsers struct {
	mu sync.Mutex

	authUser *models.User
	authErr  error

	err   error
	calls []string
	actor string

	list  []*models.User
	total int
}

func (f *fakeUsers) call(name, actor string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
	f.actor = actor
	return f.err
}

func (f *fakeUsers) Authenticate(_ context.Context, id, password string) (*models.User, error) {
	if err := f.call("Authenticate", id); err != nil {
		return nil, err
	}
	return f.authUser, f.authErr
}

func (f *fakeUsers) Create(_ context.Context, actor, id, password string, role models.Role) error {
	return f.call("Create", actor)
}

func (f *fakeUsers) Delete(_ context.Context, actor, id string) (bool, error) {
	if err := f.call("Delete", actor); err != nil {
		return false, err
	}
	return id != "ghost", nil
}

func (f *fakeUsers) ChangePassword(_ context.Context, actor, id, oldPassword, newPassword string) error {
	return f.call("ChangePassword:"+id, actor)
}

func (f *fakeUsers) Lock(_ context.Context, actor, id string) error {
	return f.call("Lock", actor)
}

func (f *fakeUsers) Unlock(_ context.Context, actor, id string) error {
	return f.call("Unlock", actor)
}

func (f *fakeUsers) List(_ context.Context, flt models.UserFilter) ([]*models.User, int, error) {
	if err := f.call("List", ""); err != nil {
		return nil, 0, err
	}
	return f.list, f.total, nil
}

func (f *fakeUsers) ListLocked(context.Context) ([]*models.User, error) {
	if err := f.call("ListLocked", ""); err != nil {
		return nil, err
	}
	return f.list, nil
}

func (f *fakeUsers) CountLocked(context.Context) (int, error) {
	if err := f.call("CountLocked", ""); err != nil {
		return 0, err
	}
	return len(f.list), nil
}

// fakeSessions knows a fixed set of tokens. A token listed in rollTo is
// replaced on validation.
type fakeSessions struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
	rollTo   map[string]string
	revoked  []string
	required []models.Role
	issueErr error
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{sessions: map[string]*models.Session{}, rollTo: map[string]string{}}
}

func (f *fakeSessions) add(id, userID string, role models.Role) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[id] = &models.Session{ID: id, UserID: userID, Role: role}
}

func (f *fakeSessions) Issue(_ context.Context, userID string, role models.Role) (*models.Session, error) {
	if f.issueErr != nil {
		return nil, f.issueErr
	}
	s := &models.Session{ID: "issued-" + userID, UserID: userID, Role: role}
	f.mu.Lock()
	f.sessions[s.ID] = s
	f.mu.Unlock()
	return s, nil
}

func (f *fakeSessions) Validate(_ context.Context, id string, required models.Role) (*services.Validation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.required = append(f.required, required)

	s, ok := f.sessions[id]
	if !ok {
		return nil, common.ErrUnauthenticated
	}
	if required != "" && s.Role != required {
		return nil, common.ErrForbidden
	}
	if next, ok := f.rollTo[id]; ok {
		ns := &models.Session{ID: next, UserID: s.UserID, Role: s.Role}
		f.sessions[next] = ns
		delete(f.rollTo, id)
		return &services.Validation{Session: ns, Rolled: true}, nil
	}
	return &services.Validation{Session: s}, nil
}

func (f *fakeSessions) Revoke(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id != "" {
		f.revoked = append(f.revoked, id)
		delete(f.sessions, id)
	}
	return nil
}

type fakeAudit struct {
	entries []*models.AuditEntry
	filter  models.AuditFilter
	err     error
}

func (f *fakeAudit) List(_ context.Context, flt models.AuditFilter) ([]*models.AuditEntry, int, error) {
	f.filter = flt
	if f.err != nil {
		return nil, 0, f.err
	}
	return f.entries, len(f.entries), nil
}

type fakeLimiter struct {
	mu    sync.Mutex
	allow int
	keys  []string
}

func (f *fakeLimiter) Allow(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, key)
	if f.allow <= 0 {
		return false
	}
	f.allow--
	return true
}

type testDeps struct {
	users    *fakeUsers
	sessions *fakeSessions
	audit    *fakeAudit
}

func newTestServer(rl RateLimiter) (*GRPCServer, *testDeps) {
	d := &testDeps{users: &fakeUsers{}, sessions: newFakeSessions(), audit: &fakeAudit{}}
	return NewGRPCServer("127.0.0.1:0", logging.Nop(), d.users, d.sessions, d.audit, rl), d
}
