package store

import "testing"

func TestUpsertTask_Idempotent(t *testing.T) {
	s := New()
	task := Task{ID: 1, Name: "write report", Completed: false}

	s.UpsertTask(task)
	s.UpsertTask(task)

	if n := len(s.Tasks()); n != 1 {
		t.Fatalf("Tasks: got %d entries, want 1", n)
	}
	got, ok := s.Task(1)
	if !ok {
		t.Fatal("Task(1): expected entry, got none")
	}
	if got != task {
		t.Errorf("Task(1): got %+v, want %+v", got, task)
	}
}

func TestUpsertTask_Overwrites(t *testing.T) {
	s := New()
	s.UpsertTask(Task{ID: 1, Name: "a", Completed: false})
	s.UpsertTask(Task{ID: 1, Name: "b", Completed: true})

	tasks := s.Tasks()
	if len(tasks) != 1 {
		t.Fatalf("Tasks: got %d entries, want 1", len(tasks))
	}
	want := Task{ID: 1, Name: "b", Completed: true}
	if tasks[0] != want {
		t.Errorf("Tasks[0]: got %+v, want %+v", tasks[0], want)
	}
}

func TestTask_Missing(t *testing.T) {
	s := New()
	if _, ok := s.Task(42); ok {
		t.Fatal("Task on empty store: expected false, got true")
	}
}

func TestDeleteTask_ReportsAbsence(t *testing.T) {
	s := New()
	if _, ok := s.DeleteTask(5); ok {
		t.Fatal("DeleteTask on empty table: expected false")
	}

	s.UpsertTask(Task{ID: 5, Name: "x"})
	removed, ok := s.DeleteTask(5)
	if !ok {
		t.Fatal("DeleteTask: expected removal")
	}
	if removed.Name != "x" {
		t.Errorf("removed.Name: got %q, want x", removed.Name)
	}

	if _, ok := s.DeleteTask(5); ok {
		t.Fatal("second DeleteTask: expected false")
	}
	if _, ok := s.Task(5); ok {
		t.Fatal("Task after delete: expected false")
	}
}

func TestTasks_SortedByID(t *testing.T) {
	s := New()
	for _, id := range []uint64{3, 1, 2} {
		s.UpsertTask(Task{ID: id})
	}
	tasks := s.Tasks()
	for i, want := range []uint64{1, 2, 3} {
		if tasks[i].ID != want {
			t.Errorf("Tasks[%d].ID: got %d, want %d", i, tasks[i].ID, want)
		}
	}
}

func TestUsers_CRUD(t *testing.T) {
	s := New()
	s.UpsertUser(User{ID: 1, Username: "alice", Password: "secret"})
	s.UpsertUser(User{ID: 2, Username: "bob", Password: "hunter2"})
	s.UpsertUser(User{ID: 1, Username: "alice", Password: "changed"})

	if n := len(s.Users()); n != 2 {
		t.Fatalf("Users: got %d, want 2", n)
	}
	u, ok := s.User(1)
	if !ok || u.Password != "changed" {
		t.Errorf("User(1): got %+v ok=%v, want password changed", u, ok)
	}

	if _, ok := s.DeleteUser(2); !ok {
		t.Fatal("DeleteUser(2): expected removal")
	}
	if _, ok := s.DeleteUser(2); ok {
		t.Fatal("DeleteUser(2) again: expected false")
	}
	if _, ok := s.User(2); ok {
		t.Fatal("User(2) after delete: expected false")
	}
}

func TestUserByName(t *testing.T) {
	s := New()
	s.UpsertUser(User{ID: 7, Username: "alice", Password: "secret"})

	u, ok := s.UserByName("alice")
	if !ok {
		t.Fatal("UserByName(alice): expected match")
	}
	if u.ID != 7 {
		t.Errorf("ID: got %d, want 7", u.ID)
	}
	if _, ok := s.UserByName("bob"); ok {
		t.Fatal("UserByName(bob): expected no match")
	}
}

func TestUserByName_DuplicatesLowestIDWins(t *testing.T) {
	s := New()
	s.UpsertUser(User{ID: 9, Username: "dup", Password: "b"})
	s.UpsertUser(User{ID: 4, Username: "dup", Password: "a"})
	s.UpsertUser(User{ID: 6, Username: "dup", Password: "c"})

	for i := 0; i < 20; i++ {
		u, ok := s.UserByName("dup")
		if !ok || u.ID != 4 {
			t.Fatalf("UserByName(dup): got %+v ok=%v, want ID 4", u, ok)
		}
	}
}

func TestLen(t *testing.T) {
	s := New()
	s.UpsertTask(Task{ID: 1})
	s.UpsertTask(Task{ID: 2})
	s.UpsertUser(User{ID: 1})

	tasks, users := s.Len()
	if tasks != 2 || users != 1 {
		t.Errorf("Len: got (%d, %d), want (2, 1)", tasks, users)
	}
}
