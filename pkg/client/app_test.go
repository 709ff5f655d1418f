package client

import (
	"context"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"millennium-sync/pkg/config"
	"millennium-sync/pkg/database"
	"millennium-sync/pkg/handlers"
)

// captureOutput replaces the print seam and collects everything the app says
func captureOutput(t *testing.T) *[]string {
	t.Helper()
	lines := &[]string{}
	orig := printlnFn
	printlnFn = func(args ...any) (int, error) {
		*lines = append(*lines, fmt.Sprintln(args...))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return lines
}

func output(lines *[]string) string {
	return strings.Join(*lines, "")
}

func newTestApp(t *testing.T, answers ...string) *App {
	t.Helper()
	cfg := &config.Config{
		Environment:    "development",
		JWTSecret:      "test-secret-0123456789abcdef0123",
		StoreKey:       "test-anon-key",
		AllowedOrigins: []string{"*"},
	}
	srv := httptest.NewServer(handlers.NewRouter(cfg, database.NewLocalDatabase()))
	t.Cleanup(srv.Close)

	queue := answers
	prompt := func(label string) (string, error) {
		if len(queue) == 0 {
			return "", fmt.Errorf("no scripted answer for prompt %q", label)
		}
		next := queue[0]
		queue = queue[1:]
		return next, nil
	}

	return NewApp(&config.Config{StoreURL: srv.URL, StoreKey: "test-anon-key"}, prompt)
}

func TestAppRegisterAndProjectFlow(t *testing.T) {
	lines := captureOutput(t)
	app := newTestApp(t, "dev@example.com", "hunter22")
	ctx := context.Background()

	require.NoError(t, app.Register(ctx))
	assert.True(t, app.isLoggedIn())
	assert.Equal(t, "dev@example.com", app.Status())

	require.NoError(t, app.AddProject(ctx, "Millennium"))
	assert.Contains(t, output(lines), "Project added!")

	*lines = (*lines)[:0]
	require.NoError(t, app.Projects(ctx))
	assert.Contains(t, output(lines), "Millennium")
}

func TestAppCommandsRequireSession(t *testing.T) {
	lines := captureOutput(t)
	app := newTestApp(t)

	err := app.Projects(context.Background())
	require.Error(t, err)
	assert.Contains(t, output(lines), "Please sign in first")
	assert.False(t, app.isLoggedIn())
}

func TestAppEditAndDelete(t *testing.T) {
	lines := captureOutput(t)
	app := newTestApp(t, "dev@example.com", "hunter22")
	ctx := context.Background()

	require.NoError(t, app.Register(ctx))
	require.NoError(t, app.AddTask(ctx, "Write the report"))

	tasks := app.tasks.Items()
	require.Len(t, tasks, 1)
	id := fmt.Sprintf("%d", tasks[0].ID)

	*lines = (*lines)[:0]
	require.NoError(t, app.EditTask(ctx, []string{id, "Revised", "title"}))
	assert.Contains(t, output(lines), "Task updated!")

	tasks = app.tasks.Items()
	require.Len(t, tasks, 1)
	assert.Equal(t, "Revised title", tasks[0].Title)

	*lines = (*lines)[:0]
	require.NoError(t, app.DeleteTask(ctx, []string{id}))
	assert.Contains(t, output(lines), "Task deleted!")
	assert.Empty(t, app.tasks.Items())
}

func TestAppBlankAddIsSilent(t *testing.T) {
	lines := captureOutput(t)
	app := newTestApp(t, "dev@example.com", "hunter22")
	ctx := context.Background()

	require.NoError(t, app.Register(ctx))

	*lines = (*lines)[:0]
	require.NoError(t, app.AddProject(ctx, "   "))
	out := output(lines)
	assert.NotContains(t, out, "added")
	assert.NotContains(t, out, "❌")
	assert.Empty(t, app.projects.Items())
}

func TestAppLogoutDropsEverything(t *testing.T) {
	captureOutput(t)
	app := newTestApp(t, "dev@example.com", "hunter22")
	ctx := context.Background()

	require.NoError(t, app.Register(ctx))
	require.NoError(t, app.AddProject(ctx, "keepsake"))

	require.NoError(t, app.Logout(ctx))
	assert.False(t, app.isLoggedIn())
	assert.Equal(t, "signed out", app.Status())

	// data access after sign-out routes back to sign-in
	err := app.Projects(ctx)
	require.Error(t, err)
}

func TestAppProfileShowsCounts(t *testing.T) {
	lines := captureOutput(t)
	app := newTestApp(t, "dev@example.com", "hunter22")
	ctx := context.Background()

	require.NoError(t, app.Register(ctx))
	require.NoError(t, app.AddProject(ctx, "one"))
	require.NoError(t, app.AddTask(ctx, "two"))

	*lines = (*lines)[:0]
	require.NoError(t, app.Profile(ctx))
	out := output(lines)
	assert.Contains(t, out, "dev@example.com")
	assert.Contains(t, out, "Projects: 1")
	assert.Contains(t, out, "Tasks: 1")
}
