package client

import (
	"bufio"
	"context"
	"strings"
)

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Profile(ctx context.Context) error
	Projects(ctx context.Context) error
	AddProject(ctx context.Context, name string) error
	EditProject(ctx context.Context, args []string) error
	DeleteProject(ctx context.Context, args []string) error
	Tasks(ctx context.Context) error
	AddTask(ctx context.Context, title string) error
	EditTask(ctx context.Context, args []string) error
	DeleteTask(ctx context.Context, args []string) error
}

// RunREPL starts a simple read-eval-print loop over the two entity screens.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Any errors returned by command handlers are ignored here; handlers print
// their own messages. This keeps the loop resilient and focused on I/O.
func RunREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn("ms> " + statusFn() + " > ")
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: projects, addproject <name>, editproject <id> [name], delproject <id>,")
				printlnFn("                    tasks, addtask <title>, edittask <id> [title], deltask <id>,")
				printlnFn("                    profile, logout, exit")
			} else {
				printlnFn("Available commands: register, login, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "profile", "whoami":
			_ = a.Profile(ctx)

		case "p", "projects":
			_ = a.Projects(ctx)

		case "addproject":
			_ = a.AddProject(ctx, strings.Join(args, " "))

		case "editproject":
			_ = a.EditProject(ctx, args)

		case "delproject":
			_ = a.DeleteProject(ctx, args)

		case "t", "tasks":
			_ = a.Tasks(ctx)

		case "addtask":
			_ = a.AddTask(ctx, strings.Join(args, " "))

		case "edittask":
			_ = a.EditTask(ctx, args)

		case "deltask":
			_ = a.DeleteTask(ctx, args)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
