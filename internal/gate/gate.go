package gate

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/taskvault/taskvault/internal/auth"
	"github.com/taskvault/taskvault/internal/events"
	"github.com/taskvault/taskvault/internal/snapshot"
	"github.com/taskvault/taskvault/internal/store"
)

// ErrPersist wraps snapshot save failures returned by mutating methods.
var ErrPersist = errors.New("gate: snapshot not saved")

// Stats is a point-in-time view of the Gate's counters.
type Stats struct {
	Tasks        int
	Users        int
	SavesOK      uint64
	SavesFailed  uint64
	LoginsOK     uint64
	LoginsFailed uint64
	LastSave     time.Time // zero until the first successful save
}

// Option configures a Gate.
type Option func(*Gate)

// WithPublisher sends change events to p.
func WithPublisher(p events.Publisher) Option {
	return func(g *Gate) { g.pub = p }
}

// WithSaveHook registers fn to be called with the outcome of every save.
// fn runs while the Gate is locked and must not call back into it.
func WithSaveHook(fn func(error)) Option {
	return func(g *Gate) { g.onSave = fn }
}

// Gate is the exclusive-access wrapper around one store.
type Gate struct {
	mu     sync.Mutex
	st     *store.Store
	p      snapshot.Persistence
	pub    events.Publisher
	onSave func(error)
	now    func() time.Time // injectable for deterministic tests
	stats  Stats
}

// Open loads the last snapshot from p and returns a Gate serving it.
// A missing or unreadable snapshot yields an empty store; Open never fails.
func Open(p snapshot.Persistence, opts ...Option) *Gate {
	g := &Gate{p: p, now: time.Now}
	for _, o := range opts {
		o(g)
	}

	img, err := p.Load()
	switch {
	case err == nil:
		g.st = img.Restore()
		tasks, users := g.st.Len()
		slog.Info("gate: snapshot loaded", "tasks", tasks, "users", users)
	case snapshot.IsMissing(err):
		g.st = store.New()
		slog.Info("gate: no snapshot found, starting empty")
	default:
		g.st = store.New()
		slog.Warn("gate: snapshot unreadable, starting empty", "err", err)
	}
	return g
}

// --- tasks ------------------------------------------------------------------

// UpsertTask stores t and saves the snapshot.
func (g *Gate) UpsertTask(t store.Task) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.st.UpsertTask(t)
	err := g.persist()
	g.publish(events.ForTask(events.TaskUpserted, t, g.now()))
	return err
}

// Task returns the task stored under id.
func (g *Gate) Task(id uint64) (store.Task, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.st.Task(id)
}

// Tasks returns all tasks.
func (g *Gate) Tasks() []store.Task {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.st.Tasks()
}

// DeleteTask removes the task stored under id. The snapshot is saved only
// when something was removed.
func (g *Gate) DeleteTask(id uint64) (store.Task, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	t, ok := g.st.DeleteTask(id)
	if !ok {
		return t, false, nil
	}
	err := g.persist()
	g.publish(events.ForTask(events.TaskDeleted, t, g.now()))
	return t, true, err
}

// --- users ------------------------------------------------------------------

// UpsertUser stores u and saves the snapshot. Usernames are not checked for
// uniqueness.
func (g *Gate) UpsertUser(u store.User) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.st.UpsertUser(u)
	err := g.persist()
	g.publish(events.ForUser(events.UserUpserted, u, g.now()))
	return err
}

// User returns the user stored under id.
func (g *Gate) User(id uint64) (store.User, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.st.User(id)
}

// Users returns all users.
func (g *Gate) Users() []store.User {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.st.Users()
}

// DeleteUser removes the user stored under id.
func (g *Gate) DeleteUser(id uint64) (store.User, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	u, ok := g.st.DeleteUser(id)
	if !ok {
		return u, false, nil
	}
	err := g.persist()
	g.publish(events.ForUser(events.UserDeleted, u, g.now()))
	return u, true, err
}

// UserByName returns the user with the given username; see store.UserByName
// for how duplicates resolve.
func (g *Gate) UserByName(username string) (store.User, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.st.UserByName(username)
}

// Login checks c against the user table. It returns auth.ErrInvalidCredentials
// on any mismatch.
func (g *Gate) Login(c auth.Credentials) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, err := auth.Login(g.st, c); err != nil {
		g.stats.LoginsFailed++
		return err
	}
	g.stats.LoginsOK++
	return nil
}

// Stats returns the current counters and table sizes.
func (g *Gate) Stats() Stats {
	g.mu.Lock()
	defer g.mu.Unlock()
	s := g.stats
	s.Tasks, s.Users = g.st.Len()
	return s
}

// --- internal ---------------------------------------------------------------

// persist saves the whole store. Callers hold g.mu.
func (g *Gate) persist() error {
	err := g.p.Save(snapshot.Capture(g.st))
	if g.onSave != nil {
		g.onSave(err)
	}
	if err != nil {
		g.stats.SavesFailed++
		slog.Error("gate: snapshot save failed", "err", err)
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	g.stats.SavesOK++
	g.stats.LastSave = g.now()
	return nil
}

func (g *Gate) publish(e events.Event) {
	if g.pub != nil {
		g.pub.Publish(e)
	}
}
