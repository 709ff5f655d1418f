package client

import (
	"bufio"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	loggedIn bool
	calls    []string
	lastArg  string
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }
func (f *fakeExec) Register(ctx context.Context) error {
	f.calls = append(f.calls, "register")
	return nil
}
func (f *fakeExec) Login(ctx context.Context) error {
	f.calls = append(f.calls, "login")
	f.loggedIn = true
	return nil
}
func (f *fakeExec) Logout(ctx context.Context) error {
	f.calls = append(f.calls, "logout")
	f.loggedIn = false
	return nil
}
func (f *fakeExec) Profile(ctx context.Context) error {
	f.calls = append(f.calls, "profile")
	return nil
}
func (f *fakeExec) Projects(ctx context.Context) error {
	f.calls = append(f.calls, "projects")
	return nil
}
func (f *fakeExec) AddProject(ctx context.Context, name string) error {
	f.calls = append(f.calls, "addproject")
	f.lastArg = name
	return nil
}
func (f *fakeExec) EditProject(ctx context.Context, args []string) error {
	f.calls = append(f.calls, "editproject")
	f.lastArg = strings.Join(args, " ")
	return nil
}
func (f *fakeExec) DeleteProject(ctx context.Context, args []string) error {
	f.calls = append(f.calls, "delproject")
	f.lastArg = strings.Join(args, " ")
	return nil
}
func (f *fakeExec) Tasks(ctx context.Context) error {
	f.calls = append(f.calls, "tasks")
	return nil
}
func (f *fakeExec) AddTask(ctx context.Context, title string) error {
	f.calls = append(f.calls, "addtask")
	f.lastArg = title
	return nil
}
func (f *fakeExec) EditTask(ctx context.Context, args []string) error {
	f.calls = append(f.calls, "edittask")
	f.lastArg = strings.Join(args, " ")
	return nil
}
func (f *fakeExec) DeleteTask(ctx context.Context, args []string) error {
	f.calls = append(f.calls, "deltask")
	f.lastArg = strings.Join(args, " ")
	return nil
}

func muteOutput(t *testing.T) {
	t.Helper()
	orig := printlnFn
	printlnFn = func(...any) (int, error) { return 0, nil }
	t.Cleanup(func() { printlnFn = orig })
}

func runWithInput(t *testing.T, f *fakeExec, lines ...string) {
	t.Helper()
	muteOutput(t)
	input := strings.NewReader(strings.Join(lines, "\n") + "\n")
	RunREPL(context.Background(), f, func() string { return "test" }, bufio.NewScanner(input))
}

func TestRunREPL_LoginFlowAndCommands(t *testing.T) {
	f := &fakeExec{}
	runWithInput(t, f,
		"help",
		"login",
		"projects",
		"addproject My new project",
		"tasks",
		"logout",
		"exit",
	)

	assert.Equal(t, []string{"login", "projects", "addproject", "tasks", "logout"}, f.calls)
}

func TestRunREPL_ArgumentsPassThrough(t *testing.T) {
	f := &fakeExec{loggedIn: true}
	runWithInput(t, f,
		"addtask Write the report",
		"edittask 3 Revised title",
		"delproject 7",
		"quit",
	)

	assert.Equal(t, []string{"addtask", "edittask", "delproject"}, f.calls)
	assert.Equal(t, "7", f.lastArg)
}

func TestRunREPL_UnknownAndBlankLines(t *testing.T) {
	f := &fakeExec{}
	runWithInput(t, f,
		"",
		"   ",
		"frobnicate",
		"exit",
	)

	assert.Empty(t, f.calls)
}

func TestRunREPL_Aliases(t *testing.T) {
	f := &fakeExec{loggedIn: true}
	runWithInput(t, f,
		"p",
		"t",
		"whoami",
		"exit",
	)

	assert.Equal(t, []string{"projects", "tasks", "profile"}, f.calls)
}

func TestRunREPL_ExitsOnEOF(t *testing.T) {
	f := &fakeExec{}
	muteOutput(t)
	input := strings.NewReader("login\n")
	RunREPL(context.Background(), f, func() string { return "" }, bufio.NewScanner(input))
	assert.Equal(t, []string{"login"}, f.calls)
}
