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
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Decks(ctx context.Context) error
	Install(ctx context.Context, args []string) error
	Update(ctx context.Context, args []string) error
	Remove(ctx context.Context, args []string) error
	Check(ctx context.Context) error
	Sync(ctx context.Context, args []string) error
	Rollback(ctx context.Context, args []string) error
	History(ctx context.Context, args []string) error
	Changelog(ctx context.Context, args []string) error
	Protect(ctx context.Context, args []string) error
}

// runREPL starts a simple read–eval–print loop for the DeckSync CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Not logged in:
//	  - help                       — show available commands
//	  - login                      — authenticate
//	  - exit | quit                — leave the program
//
//	Logged in:
//	  - help                       — show available commands
//	  - decks                      — list service decks and installed state
//	  - install <deck-id>          — download and install a deck
//	  - update [deck-id | all]     — apply pending deck updates
//	  - remove <deck-id>           — stop tracking a deck
//	  - check                      — scan for deck updates
//	  - sync [deck-id | all]       — pull and apply field changes
//	  - rollback <deck-id> <guid> <version> — restore a card
//	  - history <deck-id> <guid>   — show a card's version history
//	  - changelog <deck-id>        — show a deck's released versions
//	  - protect <deck-id> [fields] — show or set protected fields
//	  - logout                     — log out
//	  - exit | quit                — leave the program
//
// Any errors returned by command handlers are ignored here; handlers should
// log their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("decksync> %s ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: decks, install, update, remove, check, sync, rollback, history, changelog, protect, logout, exit")
			} else {
				printlnFn("Available commands: login, exit")
			}

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "decks":
			_ = a.Decks(ctx)

		case "install":
			_ = a.Install(ctx, args)

		case "update":
			_ = a.Update(ctx, args)

		case "remove":
			_ = a.Remove(ctx, args)

		case "check":
			_ = a.Check(ctx)

		case "sync":
			_ = a.Sync(ctx, args)

		case "rollback":
			_ = a.Rollback(ctx, args)

		case "history":
			_ = a.History(ctx, args)

		case "changelog":
			_ = a.Changelog(ctx, args)

		case "protect":
			_ = a.Protect(ctx, args)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
