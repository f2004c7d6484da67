package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context, args []string) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Users(ctx context.Context, args []string) error
	Locked(ctx context.Context) error
	Create(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	Lock(ctx context.Context, args []string) error
	Unlock(ctx context.Context, args []string) error
	Passwd(ctx context.Context, args []string) error
	Logs(ctx context.Context, args []string) error
}

// usage lists per command the minimum number of arguments.
var usage = map[string]struct {
	min  int
	text string
}{
	"create": {1, "Usage: create <user> [user|admin]"},
	"delete": {1, "Usage: delete <user>"},
	"lock":   {1, "Usage: lock <user>"},
	"unlock": {1, "Usage: unlock <user>"},
}

// runREPL reads commands from reader until EOF, "exit" or "quit" and
// dispatches them to a. Command prompts share reader, so input typed ahead
// is consumed in order. Handler errors are reported by the handlers.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("authctl %s > ", statusFn()))
		line, err := reader.ReadString('\n')
		parts := strings.Fields(line)
		if len(parts) == 0 {
			if err != nil {
				return
			}
			continue
		}
		cmd, args := parts[0], parts[1:]

		if u, ok := usage[cmd]; ok && len(args) < u.min {
			printlnFn(u.text)
			continue
		}

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: whoami, users, locked, create, delete, lock, unlock, passwd, logs, logout, exit")
			} else {
				printlnFn("Available commands: login, exit")
			}

		case "login":
			_ = a.Login(ctx, args)

		case "logout":
			_ = a.Logout(ctx)

		case "whoami":
			_ = a.WhoAmI(ctx)

		case "users":
			_ = a.Users(ctx, args)

		case "locked":
			_ = a.Locked(ctx)

		case "create":
			_ = a.Create(ctx, args)

		case "delete":
			_ = a.Delete(ctx, args)

		case "lock":
			_ = a.Lock(ctx, args)

		case "unlock":
			_ = a.Unlock(ctx, args)

		case "passwd":
			_ = a.Passwd(ctx, args)

		case "logs":
			_ = a.Logs(ctx, args)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			return
		}
	}
}
