package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/dmitrijs2005/authkeeper/internal/api"
	"github.com/dmitrijs2005/authkeeper/internal/client/client"
	"github.com/dmitrijs2005/authkeeper/internal/client/config"
	"github.com/dmitrijs2005/authkeeper/internal/common"
)

const perPage = 20

type App struct {
	config *config.Config
	client client.Client
	reader *bufio.Reader
	out    io.Writer

	good *color.Color
	bad  *color.Color
	dim  *color.Color
}

func NewApp(cfg *config.Config) (*App, error) {
	c, err := client.NewGRPCClient(cfg.ServerEndpointAddr)
	if err != nil {
		return nil, err
	}
	if cfg.NoColor {
		color.NoColor = true
	}
	return newApp(cfg, c, os.Stdin, os.Stdout), nil
}

func newApp(cfg *config.Config, c client.Client, in io.Reader, out io.Writer) *App {
	return &App{
		config: cfg,
		client: c,
		reader: bufio.NewReader(in),
		out:    out,
		good:   color.New(color.FgGreen),
		bad:    color.New(color.FgRed, color.Bold),
		dim:    color.New(color.Faint),
	}
}

// Run starts the REPL and closes the connection when it ends.
func (a *App) Run(ctx context.Context) {
	fmt.Fprintln(a.out, "AuthKeeper admin CLI (type 'help' for commands)")

	pctx, cancel := a.callCtx(ctx)
	if err := a.client.Ping(pctx); err != nil {
		a.fail(err)
	}
	cancel()

	runREPL(ctx, a, a.status, a.reader)

	if err := a.client.Close(); err != nil {
		a.fail(err)
	}
}

func (a *App) status() string {
	if !a.client.LoggedIn() {
		return "(not logged in)"
	}
	id, role := a.client.Identity()
	return id + "@" + role
}

func (a *App) isLoggedIn() bool {
	return a.client.LoggedIn()
}

func (a *App) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.config.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.config.RequestTimeout)
}

func (a *App) ok(format string, args ...any) {
	a.good.Fprintf(a.out, format+"\n", args...)
}

// fail prints err and returns it so handlers can end with return a.fail(err).
func (a *App) fail(err error) error {
	a.bad.Fprintln(a.out, "Error:", describe(err))
	return err
}

// describe turns errors into short operator-facing messages.
func describe(err error) string {
	switch {
	case errors.Is(err, client.ErrUnavailable):
		return "server is not reachable"
	case errors.Is(err, client.ErrNotLoggedIn):
		return "please log in first"
	case errors.Is(err, common.ErrInvalidCredential):
		return "login failed"
	case errors.Is(err, common.ErrAccountLocked):
		return "account is locked"
	case errors.Is(err, common.ErrSessionExpired), errors.Is(err, common.ErrUnauthenticated):
		return "session is no longer valid, please log in again"
	case errors.Is(err, common.ErrForbidden):
		return "permission denied"
	case errors.Is(err, common.ErrRateLimited):
		return "too many requests, slow down"
	}
	return err.Error()
}

func (a *App) password(prompt string) (string, error) {
	pw, err := GetPassword(a.out, prompt)
	if err != nil {
		return "", err
	}
	s := string(pw)
	common.Wipe(pw)
	return s, nil
}

func (a *App) Login(ctx context.Context, args []string) error {
	userID := ""
	if len(args) > 0 {
		userID = args[0]
	} else {
		var err error
		if userID, err = GetSimpleText(a.reader, "User", a.out); err != nil {
			return a.fail(err)
		}
	}

	pw, err := a.password("Password")
	if err != nil {
		return a.fail(err)
	}

	ctx, cancel := a.callCtx(ctx)
	defer cancel()

	resp, err := a.client.Login(ctx, userID, pw)
	if err != nil {
		return a.fail(err)
	}
	a.ok("Logged in as %s (%s), session valid until %s", resp.UserID, resp.Role, resp.ExpiresAt.Local().Format(time.DateTime))
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	ctx, cancel := a.callCtx(ctx)
	defer cancel()

	if err := a.client.Logout(ctx); err != nil {
		return a.fail(err)
	}
	a.ok("Logged out")
	return nil
}

func (a *App) WhoAmI(ctx context.Context) error {
	ctx, cancel := a.callCtx(ctx)
	defer cancel()

	me, err := a.client.WhoAmI(ctx)
	if err != nil {
		return a.fail(err)
	}
	fmt.Fprintf(a.out, "%s (%s), session valid until %s\n", me.UserID, me.Role, me.ExpiresAt.Local().Format(time.DateTime))
	return nil
}

// pageArg parses an optional 1-based page number.
func pageArg(args []string) (int, []string, error) {
	if len(args) == 0 {
		return 1, args, nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 1, args, nil
	}
	if n < 1 {
		return 0, nil, fmt.Errorf("%w: page must be >= 1", common.ErrValidation)
	}
	return n, args[1:], nil
}

func (a *App) printUsers(users []api.User) {
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tROLE\tLOCKED\tFAILURES\tCREATED")
	for _, u := range users {
		locked := "no"
		if u.IsLocked {
			locked = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", u.ID, u.Role, locked, u.FailedAttempts, u.CreatedAt.Local().Format(time.DateTime))
	}
	_ = tw.Flush()
}

func (a *App) Users(ctx context.Context, args []string) error {
	page, rest, err := pageArg(args)
	if err != nil {
		return a.fail(err)
	}
	req := &api.ListUsersRequest{Page: page, PerPage: perPage}
	if len(rest) > 0 {
		req.IDContains = rest[0]
	}

	ctx, cancel := a.callCtx(ctx)
	defer cancel()

	resp, err := a.client.ListUsers(ctx, req)
	if err != nil {
		return a.fail(err)
	}
	a.printUsers(resp.Users)
	a.dim.Fprintf(a.out, "page %d, %d of %d users\n", page, len(resp.Users), resp.Total)
	return nil
}

func (a *App) Locked(ctx context.Context) error {
	ctx, cancel := a.callCtx(ctx)
	defer cancel()

	users, err := a.client.ListLockedUsers(ctx)
	if err != nil {
		return a.fail(err)
	}
	n, err := a.client.CountLockedUsers(ctx)
	if err != nil {
		return a.fail(err)
	}
	a.printUsers(users)
	a.dim.Fprintf(a.out, "%d locked\n", n)
	return nil
}

func (a *App) Create(ctx context.Context, args []string) error {
	role := "user"
	if len(args) > 1 {
		role = args[1]
	}

	pw, err := a.password("Password for " + args[0])
	if err != nil {
		return a.fail(err)
	}
	again, err := a.password("Repeat password")
	if err != nil {
		return a.fail(err)
	}
	if pw != again {
		return a.fail(fmt.Errorf("%w: passwords do not match", common.ErrValidation))
	}

	ctx, cancel := a.callCtx(ctx)
	defer cancel()

	if err := a.client.CreateUser(ctx, args[0], pw, role); err != nil {
		return a.fail(err)
	}
	a.ok("User %s created", args[0])
	return nil
}

func (a *App) Delete(ctx context.Context, args []string) error {
	ctx, cancel := a.callCtx(ctx)
	defer cancel()

	deleted, err := a.client.DeleteUser(ctx, args[0])
	if err != nil {
		return a.fail(err)
	}
	if !deleted {
		return a.fail(fmt.Errorf("user %s %w", args[0], common.ErrorNotFound))
	}
	a.ok("User %s deleted", args[0])
	return nil
}

func (a *App) Lock(ctx context.Context, args []string) error {
	ctx, cancel := a.callCtx(ctx)
	defer cancel()

	if err := a.client.LockUser(ctx, args[0]); err != nil {
		return a.fail(err)
	}
	a.ok("User %s locked", args[0])
	return nil
}

func (a *App) Unlock(ctx context.Context, args []string) error {
	ctx, cancel := a.callCtx(ctx)
	defer cancel()

	if err := a.client.UnlockUser(ctx, args[0]); err != nil {
		return a.fail(err)
	}
	a.ok("User %s unlocked", args[0])
	return nil
}

func (a *App) Passwd(ctx context.Context, args []string) error {
	target := ""
	if len(args) > 0 {
		target = args[0]
	}

	oldPw, err := a.password("Current password")
	if err != nil {
		return a.fail(err)
	}
	newPw, err := a.password("New password")
	if err != nil {
		return a.fail(err)
	}

	ctx, cancel := a.callCtx(ctx)
	defer cancel()

	if err := a.client.ChangePassword(ctx, target, oldPw, newPw); err != nil {
		return a.fail(err)
	}
	a.ok("Password changed")
	return nil
}

func (a *App) Logs(ctx context.Context, args []string) error {
	page, rest, err := pageArg(args)
	if err != nil {
		return a.fail(err)
	}
	req := &api.ListAuditLogRequest{Page: page, PerPage: perPage}
	if len(rest) > 0 {
		req.UserContains = rest[0]
	}

	ctx, cancel := a.callCtx(ctx)
	defer cancel()

	resp, err := a.client.ListAuditLog(ctx, req)
	if err != nil {
		return a.fail(err)
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tUSER\tACTION\tRESULT\tDETAILS")
	for _, e := range resp.Entries {
		result := "ok"
		if !e.Success {
			result = strings.ToLower(e.ErrorCode)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.Timestamp.Local().Format(time.DateTime), e.UserID, e.Action, result, e.Details)
	}
	_ = tw.Flush()
	a.dim.Fprintf(a.out, "page %d, %d of %d entries\n", page, len(resp.Entries), resp.Total)
	return nil
}
