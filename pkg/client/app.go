package client

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"millennium-sync/pkg/backend"
	"millennium-sync/pkg/config"
	"millennium-sync/pkg/models"
	"millennium-sync/pkg/state"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// ProjectSpec describes the projects table for the list store
func ProjectSpec() state.Spec {
	return state.Spec{
		Table:       "projects",
		Label:       "Project",
		EditField:   "name",
		OwnerColumn: "user_id",
		Required:    []string{"name"},
		OrderBy:     "created_at",
		NewestFirst: true,
	}
}

// TaskSpec describes the tasks table for the list store
func TaskSpec() state.Spec {
	return state.Spec{
		Table:       "tasks",
		Label:       "Task",
		EditField:   "title",
		OwnerColumn: "user_id",
		Required:    []string{"title"},
		OrderBy:     "created_at",
		NewestFirst: true,
	}
}

// App drives the two entity screens over one remote store session. Screens
// activate behind the session guard: a command that needs data first
// resolves the session, then loads its collection. An unauthenticated
// resolution routes the user to sign-in without touching any table.
type App struct {
	client   *backend.RestClient
	guard    *state.Guard
	notifier *state.Notifier
	editor   *state.Editor

	mu       sync.Mutex
	session  *state.Session
	projects *state.ListStore[models.Project]
	tasks    *state.ListStore[models.Task]

	// credential prompts, replaceable in tests
	promptFn func(label string) (string, error)
}

// NewApp creates the client app against the configured store
func NewApp(cfg *config.Config, prompt func(label string) (string, error)) *App {
	return &App{
		client:   backend.NewRestClient(cfg.StoreURL, cfg.StoreKey),
		notifier: state.NewNotifier(),
		editor:   state.NewEditor(),
		promptFn: prompt,
	}
}

func (a *App) init() {
	if a.guard == nil {
		a.guard = state.NewGuard(a.client)
	}
}

// WatchAuthEvents consumes the auth change stream until ctx is done. A
// sign-out drops the local session and collections; the next screen
// activation after a sign-in builds them fresh.
func (a *App) WatchAuthEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-a.client.Events():
			if !ok {
				return
			}
			if ev.Kind == backend.SignedOut {
				a.mu.Lock()
				a.session = nil
				a.projects = nil
				a.tasks = nil
				a.mu.Unlock()
			}
		}
	}
}

// Status renders the prompt segment showing who is signed in
func (a *App) Status() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session == nil {
		return "signed out"
	}
	return a.session.Email
}

func (a *App) isLoggedIn() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session != nil
}

// activate resolves the session and loads both collections when the
// identity changed since the last activation
func (a *App) activate(ctx context.Context) error {
	a.init()

	session, err := a.guard.Resolve(ctx)
	if err != nil {
		a.mu.Lock()
		a.session = nil
		a.projects = nil
		a.tasks = nil
		a.mu.Unlock()
		printlnFn("Please sign in first (login or register).")
		return err
	}

	a.mu.Lock()
	fresh := a.session == nil || a.session.UserID != session.UserID
	if fresh {
		a.session = session
		a.projects = state.NewListStore[models.Project](ProjectSpec(), a.client, session, a.notifier)
		a.tasks = state.NewListStore[models.Task](TaskSpec(), a.client, session, a.notifier)
	}
	projects, tasks := a.projects, a.tasks
	a.mu.Unlock()

	if fresh {
		if err := projects.Initialize(ctx); err != nil {
			a.flash()
		}
		if err := tasks.Initialize(ctx); err != nil {
			a.flash()
		}
	}
	return nil
}

// flash prints and clears any pending notifications
func (a *App) flash() {
	if n := a.notifier.Current(state.Success); n != nil {
		printlnFn("✅ " + n.Message)
		a.notifier.Clear(state.Success)
	}
	if n := a.notifier.Current(state.Error); n != nil {
		printlnFn("❌ " + n.Message)
		a.notifier.Clear(state.Error)
	}
}

// Register creates an account, then signs in with the same credentials
func (a *App) Register(ctx context.Context) error {
	email, err := a.promptFn("Email")
	if err != nil {
		return err
	}
	password, err := a.promptFn("Password")
	if err != nil {
		return err
	}

	if _, err := a.client.SignUp(ctx, email, password); err != nil {
		printlnFn("❌ " + err.Error())
		return err
	}
	printlnFn("Account created.")
	return a.signIn(ctx, email, password)
}

// Login prompts for credentials and signs in
func (a *App) Login(ctx context.Context) error {
	email, err := a.promptFn("Email")
	if err != nil {
		return err
	}
	password, err := a.promptFn("Password")
	if err != nil {
		return err
	}
	return a.signIn(ctx, email, password)
}

func (a *App) signIn(ctx context.Context, email, password string) error {
	if _, err := a.client.SignInWithPassword(ctx, email, password); err != nil {
		printlnFn("❌ " + err.Error())
		return err
	}
	if err := a.activate(ctx); err != nil {
		return err
	}
	a.mu.Lock()
	session := a.session
	a.mu.Unlock()
	if session != nil {
		printlnFn("Signed in as " + session.Email)
	}
	return nil
}

// Logout revokes the session
func (a *App) Logout(ctx context.Context) error {
	if err := a.client.SignOut(ctx); err != nil {
		printlnFn("❌ " + err.Error())
		return err
	}
	a.mu.Lock()
	a.session = nil
	a.projects = nil
	a.tasks = nil
	a.mu.Unlock()
	printlnFn("Signed out.")
	return nil
}

// Profile shows the signed-in identity and collection totals
func (a *App) Profile(ctx context.Context) error {
	if err := a.activate(ctx); err != nil {
		return err
	}
	a.mu.Lock()
	session, projects, tasks := a.session, a.projects, a.tasks
	a.mu.Unlock()

	printlnFn("Signed in as " + session.Email + " (" + session.UserID + ")")

	if n, err := projects.RemoteCount(ctx); err == nil {
		printlnFn(fmt.Sprintf("Projects: %d", n))
	}
	if n, err := tasks.RemoteCount(ctx); err == nil {
		printlnFn(fmt.Sprintf("Tasks: %d", n))
	}
	return nil
}

// Projects lists the project collection
func (a *App) Projects(ctx context.Context) error {
	if err := a.activate(ctx); err != nil {
		return err
	}
	a.mu.Lock()
	store := a.projects
	a.mu.Unlock()

	items := store.Items()
	if len(items) == 0 {
		printlnFn("No projects yet.")
		return nil
	}
	for _, p := range items {
		printlnFn(fmt.Sprintf("  [%d] %s", p.ID, p.Name))
	}
	return nil
}

// AddProject creates a project with the given name
func (a *App) AddProject(ctx context.Context, name string) error {
	if err := a.activate(ctx); err != nil {
		return err
	}
	a.mu.Lock()
	store := a.projects
	a.mu.Unlock()

	err := store.Add(ctx, map[string]interface{}{"name": name})
	a.flash()
	return err
}

// EditProject renames a project through the edit session
func (a *App) EditProject(ctx context.Context, args []string) error {
	if err := a.activate(ctx); err != nil {
		return err
	}
	a.mu.Lock()
	store := a.projects
	a.mu.Unlock()
	return a.editRow(ctx, store, projectSeed, args)
}

// DeleteProject removes a project
func (a *App) DeleteProject(ctx context.Context, args []string) error {
	if err := a.activate(ctx); err != nil {
		return err
	}
	id, err := parseID(args)
	if err != nil {
		printlnFn(err.Error())
		return err
	}
	a.mu.Lock()
	store := a.projects
	a.mu.Unlock()

	err = store.Remove(ctx, id)
	a.flash()
	return err
}

// Tasks lists the task collection
func (a *App) Tasks(ctx context.Context) error {
	if err := a.activate(ctx); err != nil {
		return err
	}
	a.mu.Lock()
	store := a.tasks
	a.mu.Unlock()

	items := store.Items()
	if len(items) == 0 {
		printlnFn("No tasks yet.")
		return nil
	}
	for _, t := range items {
		printlnFn(fmt.Sprintf("  [%d] %s", t.ID, t.Title))
	}
	return nil
}

// AddTask creates a task with the given title
func (a *App) AddTask(ctx context.Context, title string) error {
	if err := a.activate(ctx); err != nil {
		return err
	}
	a.mu.Lock()
	store := a.tasks
	a.mu.Unlock()

	err := store.Add(ctx, map[string]interface{}{"title": title})
	a.flash()
	return err
}

// EditTask retitles a task through the edit session
func (a *App) EditTask(ctx context.Context, args []string) error {
	if err := a.activate(ctx); err != nil {
		return err
	}
	a.mu.Lock()
	store := a.tasks
	a.mu.Unlock()
	return a.editRow(ctx, store, taskSeed, args)
}

// DeleteTask removes a task
func (a *App) DeleteTask(ctx context.Context, args []string) error {
	if err := a.activate(ctx); err != nil {
		return err
	}
	id, err := parseID(args)
	if err != nil {
		printlnFn(err.Error())
		return err
	}
	a.mu.Lock()
	store := a.tasks
	a.mu.Unlock()

	err = store.Remove(ctx, id)
	a.flash()
	return err
}

// editRow runs one edit session: begin with the current value as the draft,
// apply the new text, save through the store
func (a *App) editRow(ctx context.Context, store state.Updater, seed seedFn, args []string) error {
	id, err := parseID(args)
	if err != nil {
		printlnFn(err.Error())
		return err
	}

	a.editor.Begin(id, seed(a, id))
	if len(args) > 1 {
		a.editor.SetDraft(strings.Join(args[1:], " "))
	} else {
		text, perr := a.promptFn("New value")
		if perr != nil {
			a.editor.Cancel()
			return perr
		}
		a.editor.SetDraft(text)
	}

	err = a.editor.Save(ctx, store)
	a.flash()
	return err
}

type seedFn func(a *App, id int64) string

func projectSeed(a *App, id int64) string {
	a.mu.Lock()
	store := a.projects
	a.mu.Unlock()
	if store != nil {
		if p, ok := store.Get(id); ok {
			return p.Name
		}
	}
	return ""
}

func taskSeed(a *App, id int64) string {
	a.mu.Lock()
	store := a.tasks
	a.mu.Unlock()
	if store != nil {
		if t, ok := store.Get(id); ok {
			return t.Title
		}
	}
	return ""
}

func parseID(args []string) (int64, error) {
	if len(args) == 0 {
		return 0, errors.New("an id is required")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id: %s", args[0])
	}
	return id, nil
}
