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
	Today(ctx context.Context) error
	Mark(ctx context.Context, args []string) error
	Voluntary(ctx context.Context, args []string) error
	Stats(ctx context.Context, args []string) error
	Status(ctx context.Context) error
	Sync(ctx context.Context) error
	Restore(ctx context.Context) error
	Times(ctx context.Context) error
	Location(ctx context.Context, args []string) error
	Login(ctx context.Context, args []string) error
	Complete(ctx context.Context, args []string) error
	Logout(ctx context.Context) error
}

const helpText = `Available commands:
  today                                   show today's prayers
  mark <slot> ontime                      record a prayer on time
  mark <slot> makeup [today|last|<date>]  record a make-up prayer
  voluntary <units>                       add to today's voluntary units
  stats [week|month]                      show statistics
  status                                  show sign-in and backup state
  sync                                    back up now
  restore                                 restore from the cloud backup
  times                                   show today's prayer times
  location <lat> <lon>                    set location for prayer times
  login <email>                           email a sign-in link
  complete <link>                         finish sign-in
  logout                                  sign out
  exit | quit                             leave the program
Slots: dawn, noon, afternoon, sunset, night`

// runREPL starts a simple read–eval–print loop.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a' with the remaining tokens. The
// loop exits on scanner EOF, context cancellation, or when the user types
// "exit" or "quit".
//
// A nil statusFn disables the prompt, which is used when stdin is not a
// terminal. Errors from handlers are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		if ctx.Err() != nil {
			return
		}
		if statusFn != nil {
			printlnFn(fmt.Sprintf("pk %s > ", statusFn()))
		}
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := strings.ToLower(parts[0]), parts[1:]

		var err error
		switch cmd {
		case "help", "?":
			printlnFn(helpText)
		case "today", "t":
			err = a.Today(ctx)
		case "mark", "m":
			err = a.Mark(ctx, args)
		case "voluntary", "v":
			err = a.Voluntary(ctx, args)
		case "stats":
			err = a.Stats(ctx, args)
		case "status":
			err = a.Status(ctx)
		case "sync":
			err = a.Sync(ctx)
		case "restore":
			err = a.Restore(ctx)
		case "times":
			err = a.Times(ctx)
		case "location":
			err = a.Location(ctx, args)
		case "login":
			err = a.Login(ctx, args)
		case "complete":
			err = a.Complete(ctx, args)
		case "logout":
			err = a.Logout(ctx)
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn(errorColor.Sprint("error: " + err.Error()))
		}
	}
}
