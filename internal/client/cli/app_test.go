package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/authkeeper/internal/api"
	"github.com/dmitrijs2005/authkeeper/internal/client/client"
	"github.com/dmitrijs2005/authkeeper/internal/client/config"
	"github.com/dmitrijs2005/authkeeper/internal/common"
)

type fakeClient struct {
	client.Client

	userID, role string
	pingErr      error
	loginErr     error
	deleted      bool
	err          error

	created  []string
	changed  []string
	locked   []string
	unlocked []string
	usersReq *api.ListUsersRequest
	logsReq  *api.ListAuditLogRequest
	closed   bool
	deadline bool
}

func (f *fakeClient) note(ctx context.Context) {
	_, f.deadline = ctx.Deadline()
}

func (f *fakeClient) Ping(context.Context) error { return f.pingErr }

func (f *fakeClient) Login(ctx context.Context, userID, password string) (*api.LoginResponse, error) {
	f.note(ctx)
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	f.userID, f.role = userID, "admin"
	return &api.LoginResponse{SessionID: "tok", UserID: userID, Role: "admin", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (f *fakeClient) Logout(context.Context) error {
	f.userID, f.role = "", ""
	return f.err
}

func (f *fakeClient) WhoAmI(context.Context) (*api.WhoAmIResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &api.WhoAmIResponse{UserID: f.userID, Role: f.role, ExpiresAt: time.Now()}, nil
}

func (f *fakeClient) CreateUser(_ context.Context, userID, password, role string) error {
	f.created = append(f.created, userID+":"+password+":"+role)
	return f.err
}

func (f *fakeClient) DeleteUser(context.Context, string) (bool, error) { return f.deleted, f.err }

func (f *fakeClient) ChangePassword(_ context.Context, userID, oldPw, newPw string) error {
	f.changed = append(f.changed, userID+":"+oldPw+":"+newPw)
	return f.err
}

func (f *fakeClient) LockUser(_ context.Context, id string) error {
	f.locked = append(f.locked, id)
	return f.err
}

func (f *fakeClient) UnlockUser(_ context.Context, id string) error {
	f.unlocked = append(f.unlocked, id)
	return f.err
}

func (f *fakeClient) ListUsers(_ context.Context, req *api.ListUsersRequest) (*api.ListUsersResponse, error) {
	f.usersReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &api.ListUsersResponse{Users: []api.User{{ID: "root", Role: "admin"}, {ID: "bob", Role: "user", IsLocked: true, FailedAttempts: 5}}, Total: 2}, nil
}

func (f *fakeClient) ListLockedUsers(context.Context) ([]api.User, error) {
	return []api.User{{ID: "bob", Role: "user", IsLocked: true}}, f.err
}

func (f *fakeClient) CountLockedUsers(context.Context) (int, error) { return 1, f.err }

func (f *fakeClient) ListAuditLog(_ context.Context, req *api.ListAuditLogRequest) (*api.ListAuditLogResponse, error) {
	f.logsReq = req
	return &api.ListAuditLogResponse{Entries: []api.AuditEntry{
		{UserID: "bob", Action: "login", Success: false, ErrorCode: "INVALID_CREDENTIAL"},
		{UserID: "root", Action: "lock_user", Success: true, Details: "target=bob"},
	}, Total: 2}, nil
}

func (f *fakeClient) LoggedIn() bool             { return f.userID != "" }
func (f *fakeClient) Identity() (string, string) { return f.userID, f.role }
func (f *fakeClient) Close() error               { f.closed = true; return nil }

func newTestApp(t *testing.T, in string, passwords ...string) (*App, *fakeClient, *bytes.Buffer) {
	t.Helper()
	color.NoColor = true

	orig := readPassword
	t.Cleanup(func() { readPassword = orig })
	readPassword = func(int) ([]byte, error) {
		if len(passwords) == 0 {
			return nil, errors.New("no more passwords")
		}
		p := passwords[0]
		passwords = passwords[1:]
		return []byte(p), nil
	}

	fc := &fakeClient{}
	var out bytes.Buffer
	cfg := &config.Config{ServerEndpointAddr: "x", RequestTimeout: time.Second}
	return newApp(cfg, fc, strings.NewReader(in), &out), fc, &out
}

func TestLogin_WithArgument(t *testing.T) {
	a, fc, out := newTestApp(t, "", "pw")

	require.NoError(t, a.Login(context.Background(), []string{"root"}))
	assert.True(t, fc.deadline)
	assert.Equal(t, "root@admin", a.status())
	assert.Contains(t, out.String(), "Logged in as root (admin)")
}

func TestLogin_PromptsForUser(t *testing.T) {
	a, fc, _ := newTestApp(t, "alice\n", "pw")

	require.NoError(t, a.Login(context.Background(), nil))
	assert.Equal(t, "alice", fc.userID)
}

func TestLogin_Failure(t *testing.T) {
	a, fc, out := newTestApp(t, "", "bad")
	fc.loginErr = common.ErrInvalidCredential

	err := a.Login(context.Background(), []string{"root"})
	require.ErrorIs(t, err, common.ErrInvalidCredential)
	assert.Contains(t, out.String(), "Error: login failed")
	assert.Equal(t, "(not logged in)", a.status())
}

func TestCreate(t *testing.T) {
	a, fc, out := newTestApp(t, "", "pw1", "pw1")

	require.NoError(t, a.Create(context.Background(), []string{"bob"}))
	assert.Equal(t, []string{"bob:pw1:user"}, fc.created)
	assert.Contains(t, out.String(), "User bob created")
}

func TestCreate_PasswordMismatch(t *testing.T) {
	a, fc, out := newTestApp(t, "", "pw1", "pw2")

	err := a.Create(context.Background(), []string{"bob", "admin"})
	require.ErrorIs(t, err, common.ErrValidation)
	assert.Empty(t, fc.created)
	assert.Contains(t, out.String(), "passwords do not match")
}

func TestDelete(t *testing.T) {
	a, fc, out := newTestApp(t, "")
	fc.deleted = true
	require.NoError(t, a.Delete(context.Background(), []string{"bob"}))
	assert.Contains(t, out.String(), "User bob deleted")

	fc.deleted = false
	err := a.Delete(context.Background(), []string{"ghost"})
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestLockUnlock(t *testing.T) {
	a, fc, out := newTestApp(t, "")

	require.NoError(t, a.Lock(context.Background(), []string{"bob"}))
	require.NoError(t, a.Unlock(context.Background(), []string{"bob"}))
	assert.Equal(t, []string{"bob"}, fc.locked)
	assert.Equal(t, []string{"bob"}, fc.unlocked)
	assert.Contains(t, out.String(), "User bob unlocked")

	fc.err = common.ErrForbidden
	err := a.Lock(context.Background(), []string{"root"})
	require.ErrorIs(t, err, common.ErrForbidden)
	assert.Contains(t, out.String(), "Error: permission denied")
}

func TestPasswd(t *testing.T) {
	a, fc, _ := newTestApp(t, "", "old", "new", "old2", "new2")

	require.NoError(t, a.Passwd(context.Background(), nil))
	require.NoError(t, a.Passwd(context.Background(), []string{"bob"}))
	assert.Equal(t, []string{":old:new", "bob:old2:new2"}, fc.changed)
}

func TestUsers(t *testing.T) {
	a, fc, out := newTestApp(t, "")

	require.NoError(t, a.Users(context.Background(), []string{"2", "bo"}))
	assert.Equal(t, &api.ListUsersRequest{Page: 2, PerPage: perPage, IDContains: "bo"}, fc.usersReq)
	s := out.String()
	assert.Contains(t, s, "ID")
	assert.Contains(t, s, "bob")
	assert.Contains(t, s, "page 2, 2 of 2 users")
}

func TestUsers_FilterWithoutPage(t *testing.T) {
	a, fc, _ := newTestApp(t, "")

	require.NoError(t, a.Users(context.Background(), []string{"bo"}))
	assert.Equal(t, 1, fc.usersReq.Page)
	assert.Equal(t, "bo", fc.usersReq.IDContains)
}

func TestUsers_BadPage(t *testing.T) {
	a, _, _ := newTestApp(t, "")

	err := a.Users(context.Background(), []string{"0"})
	require.ErrorIs(t, err, common.ErrValidation)
}

func TestLocked(t *testing.T) {
	a, _, out := newTestApp(t, "")

	require.NoError(t, a.Locked(context.Background()))
	assert.Contains(t, out.String(), "1 locked")
}

func TestLogs(t *testing.T) {
	a, fc, out := newTestApp(t, "")

	require.NoError(t, a.Logs(context.Background(), []string{"root"}))
	assert.Equal(t, "root", fc.logsReq.UserContains)
	s := out.String()
	assert.Contains(t, s, "invalid_credential")
	assert.Contains(t, s, "target=bob")
}

func TestWhoAmI_NotLoggedIn(t *testing.T) {
	a, fc, out := newTestApp(t, "")
	fc.err = client.ErrNotLoggedIn

	err := a.WhoAmI(context.Background())
	require.ErrorIs(t, err, client.ErrNotLoggedIn)
	assert.Contains(t, out.String(), "please log in first")
}

func TestRun_PingFailureThenExit(t *testing.T) {
	captureOutput(t)
	a, fc, out := newTestApp(t, "exit\n")
	fc.pingErr = client.ErrUnavailable

	a.Run(context.Background())
	assert.Contains(t, out.String(), "server is not reachable")
	assert.True(t, fc.closed)
}

func TestCallCtx_NoTimeout(t *testing.T) {
	a, _, _ := newTestApp(t, "")
	a.config.RequestTimeout = 0

	ctx, cancel := a.callCtx(context.Background())
	defer cancel()
	_, ok := ctx.Deadline()
	assert.False(t, ok)
}
