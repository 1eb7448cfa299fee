package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface is the command surface the REPL needs. App satisfies it; tests
// provide a lightweight stub.
type execIface interface {
	isLocked() bool
	busy() bool
	touch()
	Ping(ctx context.Context) error
	Token(ctx context.Context) error
	Resend(ctx context.Context) error
	Status(ctx context.Context) error
	Code(ctx context.Context) error
	Export(ctx context.Context) error
	SendID(ctx context.Context) error
	Reset(ctx context.Context) error
	Verify(ctx context.Context, args []string) error
	Stats(ctx context.Context) error
	Lock(ctx context.Context) error
	Unlock(ctx context.Context) error
}

const (
	helpActive = "Available commands: ping, token, resend, status, code, export, send-id, verify [path], stats, lock, reset, exit"
	helpLocked = "Available commands: unlock, exit"
)

// runREPL reads commands from scanner and dispatches them to a until EOF or
// exit. Every command counts as user interaction. While the session is
// locked only help, unlock and exit are accepted. Exit is refused while a
// resend is running. A completed reset leaves no identity to unlock, so it
// ends the loop.
//
// Handler errors are ignored here; handlers report to the user themselves.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("rk %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		a.touch()

		if a.isLocked() {
			switch cmd {
			case "help", "unlock", "exit", "quit":
			default:
				printlnFn("Session is locked. Type 'unlock' to continue.")
				continue
			}
		}

		switch cmd {
		case "help":
			if a.isLocked() {
				printlnFn(helpLocked)
			} else {
				printlnFn(helpActive)
			}

		case "ping":
			_ = a.Ping(ctx)

		case "token":
			_ = a.Token(ctx)

		case "resend":
			_ = a.Resend(ctx)

		case "status":
			_ = a.Status(ctx)

		case "code":
			_ = a.Code(ctx)

		case "export":
			_ = a.Export(ctx)

		case "send-id":
			_ = a.SendID(ctx)

		case "reset":
			if err := a.Reset(ctx); err == nil && a.isLocked() {
				return
			}

		case "verify":
			_ = a.Verify(ctx, args)

		case "stats":
			_ = a.Stats(ctx)

		case "lock", "logout":
			_ = a.Lock(ctx)

		case "unlock":
			_ = a.Unlock(ctx)

		case "exit", "quit":
			if a.busy() {
				printlnFn("A resend is in progress, please wait until it finishes.")
				continue
			}
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
