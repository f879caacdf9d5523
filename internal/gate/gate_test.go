package gate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/taskvault/taskvault/internal/auth"
	"github.com/taskvault/taskvault/internal/events"
	"github.com/taskvault/taskvault/internal/snapshot"
	"github.com/taskvault/taskvault/internal/store"
)

// recorder is an events.Publisher that keeps every event.
type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(e events.Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Kind)
	}
	return out
}

func TestOpen_EmptyWhenNoSnapshot(t *testing.T) {
	g := Open(&snapshot.Memory{})
	if n := len(g.Tasks()); n != 0 {
		t.Errorf("Tasks: got %d, want 0", n)
	}
}

func TestOpen_CorruptFileFallsBackToEmpty(t *testing.T) {
	p := filepath.Join(t.TempDir(), "db.json")
	if err := os.WriteFile(p, []byte("garbage"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	g := Open(snapshot.NewFile(p))
	if s := g.Stats(); s.Tasks != 0 || s.Users != 0 {
		t.Errorf("Stats: got %+v, want empty store", s)
	}

	// The first mutation replaces the corrupt file with a valid snapshot.
	if err := g.UpsertTask(store.Task{ID: 1, Name: "fresh"}); err != nil {
		t.Fatalf("UpsertTask: %v", err)
	}
	if _, err := snapshot.NewFile(p).Load(); err != nil {
		t.Errorf("Load after save: %v", err)
	}
}

func TestRestart_ObservesAcknowledgedMutations(t *testing.T) {
	p := filepath.Join(t.TempDir(), "db.json")
	g := Open(snapshot.NewFile(p))

	if err := g.UpsertTask(store.Task{ID: 1, Name: "a"}); err != nil {
		t.Fatalf("UpsertTask: %v", err)
	}
	if err := g.UpsertTask(store.Task{ID: 2, Name: "b", Completed: true}); err != nil {
		t.Fatalf("UpsertTask: %v", err)
	}
	if err := g.UpsertUser(store.User{ID: 1, Username: "alice", Password: "secret"}); err != nil {
		t.Fatalf("UpsertUser: %v", err)
	}
	if _, _, err := g.DeleteTask(1); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}

	restarted := Open(snapshot.NewFile(p))
	tasks := restarted.Tasks()
	if len(tasks) != 1 || tasks[0] != (store.Task{ID: 2, Name: "b", Completed: true}) {
		t.Errorf("tasks after restart: got %+v", tasks)
	}
	if u, ok := restarted.User(1); !ok || u.Username != "alice" {
		t.Errorf("user 1 after restart: got %+v ok=%v", u, ok)
	}
}

func TestMutations_SaveEveryTime(t *testing.T) {
	m := &snapshot.Memory{}
	g := Open(m)

	g.UpsertTask(store.Task{ID: 1})   //nolint:errcheck
	g.UpsertUser(store.User{ID: 1})   //nolint:errcheck
	g.DeleteTask(1)                   //nolint:errcheck
	g.DeleteUser(1)                   //nolint:errcheck
	g.DeleteTask(99)                  //nolint:errcheck
	g.Tasks()

	if n := m.Saves(); n != 4 {
		t.Errorf("Saves: got %d, want 4", n)
	}
}

func TestDeleteTask_MissingIsNotAnError(t *testing.T) {
	g := Open(&snapshot.Memory{})
	for i := 0; i < 2; i++ {
		_, ok, err := g.DeleteTask(5)
		if ok || err != nil {
			t.Fatalf("DeleteTask(5) #%d: got ok=%v err=%v", i, ok, err)
		}
	}
}

func TestSaveFailure_KeepsMemoryState(t *testing.T) {
	m := &snapshot.Memory{}
	boom := errors.New("disk full")
	m.FailWith(boom)

	var hooked []error
	g := Open(m, WithSaveHook(func(err error) { hooked = append(hooked, err) }))

	err := g.UpsertTask(store.Task{ID: 1, Name: "kept"})
	if !errors.Is(err, ErrPersist) || !errors.Is(err, boom) {
		t.Fatalf("UpsertTask: got %v, want ErrPersist wrapping %v", err, boom)
	}
	if task, ok := g.Task(1); !ok || task.Name != "kept" {
		t.Errorf("Task(1): got %+v ok=%v", task, ok)
	}

	m.FailWith(nil)
	if err := g.UpsertTask(store.Task{ID: 2}); err != nil {
		t.Fatalf("UpsertTask after recovery: %v", err)
	}

	s := g.Stats()
	if s.SavesFailed != 1 || s.SavesOK != 1 {
		t.Errorf("Stats: got %+v, want 1 failed 1 ok", s)
	}
	if len(hooked) != 2 || hooked[0] == nil || hooked[1] != nil {
		t.Errorf("save hook: got %v", hooked)
	}
}

func TestLogin_CountsOutcomes(t *testing.T) {
	g := Open(&snapshot.Memory{})
	g.UpsertUser(store.User{ID: 1, Username: "alice", Password: "secret"}) //nolint:errcheck

	if err := g.Login(auth.Credentials{Username: "alice", Password: "secret"}); err != nil {
		t.Fatalf("Login: %v", err)
	}
	wrong := g.Login(auth.Credentials{Username: "alice", Password: "wrong"})
	unknown := g.Login(auth.Credentials{Username: "bob", Password: "anything"})
	if !errors.Is(wrong, auth.ErrInvalidCredentials) || !errors.Is(unknown, auth.ErrInvalidCredentials) {
		t.Fatalf("failures: got %v / %v", wrong, unknown)
	}

	s := g.Stats()
	if s.LoginsOK != 1 || s.LoginsFailed != 2 {
		t.Errorf("Stats: got %+v", s)
	}
}

func TestEvents_PublishedPerMutation(t *testing.T) {
	rec := &recorder{}
	g := Open(&snapshot.Memory{}, WithPublisher(rec))

	g.UpsertTask(store.Task{ID: 1})                                       //nolint:errcheck
	g.DeleteTask(1)                                                       //nolint:errcheck
	g.DeleteTask(1)                                                       //nolint:errcheck
	g.UpsertUser(store.User{ID: 2, Username: "bob", Password: "hunter2"}) //nolint:errcheck
	g.DeleteUser(2)                                                       //nolint:errcheck

	want := []string{events.TaskUpserted, events.TaskDeleted, events.UserUpserted, events.UserDeleted}
	got := rec.kinds()
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("kinds: got %v, want %v", got, want)
	}
}

func TestStats_LastSave(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	g := Open(&snapshot.Memory{})
	g.now = func() time.Time { return at }

	if !g.Stats().LastSave.IsZero() {
		t.Fatal("LastSave: expected zero before any save")
	}
	g.UpsertTask(store.Task{ID: 1}) //nolint:errcheck
	if got := g.Stats().LastSave; !got.Equal(at) {
		t.Errorf("LastSave: got %v, want %v", got, at)
	}
}

func TestConcurrentUpserts_NoLostUpdates(t *testing.T) {
	p := filepath.Join(t.TempDir(), "db.json")
	g := Open(snapshot.NewFile(p))

	const n = 64
	var wg sync.WaitGroup
	for i := 1; i <= n; i++ {
		wg.Add(1)
		go func(id uint64) {
			defer wg.Done()
			if err := g.UpsertTask(store.Task{ID: id, Name: fmt.Sprintf("task-%d", id)}); err != nil {
				t.Errorf("UpsertTask(%d): %v", id, err)
			}
		}(uint64(i))
	}
	wg.Wait()

	tasks := g.Tasks()
	if len(tasks) != n {
		t.Fatalf("Tasks: got %d, want %d", len(tasks), n)
	}
	for _, task := range tasks {
		if task.Name != fmt.Sprintf("task-%d", task.ID) {
			t.Errorf("task %d: name %q", task.ID, task.Name)
		}
	}

	// The last save happened inside the lock, so the file holds every task.
	img, err := snapshot.NewFile(p).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(img.Tasks) != n {
		t.Errorf("snapshot tasks: got %d, want %d", len(img.Tasks), n)
	}
}

func TestConcurrentMixedOps(t *testing.T) {
	g := Open(&snapshot.Memory{})
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(3)
		go func(id uint64) {
			defer wg.Done()
			g.UpsertTask(store.Task{ID: id}) //nolint:errcheck
		}(uint64(i))
		go func() {
			defer wg.Done()
			g.Tasks()
		}()
		go func() {
			defer wg.Done()
			g.Login(auth.Credentials{Username: "nobody"}) //nolint:errcheck
		}()
	}
	wg.Wait()
	if n := len(g.Tasks()); n != 50 {
		t.Errorf("Tasks: got %d, want 50", n)
	}
}
