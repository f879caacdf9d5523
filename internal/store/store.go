package store

import "sort"

// Task is one entry of the task list. ID is chosen by the caller.
type Task struct {
	ID        uint64 `json:"id"`
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
}

// User is a registered account. Password is kept in cleartext.
type User struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Store is the in-memory pair of tables, keyed by caller-supplied ID.
type Store struct {
	tasks map[uint64]Task
	users map[uint64]User
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		tasks: make(map[uint64]Task),
		users: make(map[uint64]User),
	}
}

// UpsertTask inserts t, replacing any task already stored under t.ID.
func (s *Store) UpsertTask(t Task) {
	s.tasks[t.ID] = t
}

// Task returns the task stored under id and whether it was found.
func (s *Store) Task(id uint64) (Task, bool) {
	t, ok := s.tasks[id]
	return t, ok
}

// Tasks returns every task ordered by ID. Callers must not rely on the order.
func (s *Store) Tasks() []Task {
	out := make([]Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// DeleteTask removes the task stored under id and returns it.
// Deleting a missing id is a no-op that reports false.
func (s *Store) DeleteTask(id uint64) (Task, bool) {
	t, ok := s.tasks[id]
	if ok {
		delete(s.tasks, id)
	}
	return t, ok
}

// UpsertUser inserts u, replacing any user already stored under u.ID.
func (s *Store) UpsertUser(u User) {
	s.users[u.ID] = u
}

// User returns the user stored under id and whether it was found.
func (s *Store) User(id uint64) (User, bool) {
	u, ok := s.users[id]
	return u, ok
}

// Users returns every user ordered by ID.
func (s *Store) Users() []User {
	out := make([]User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// DeleteUser removes the user stored under id and returns it.
func (s *Store) DeleteUser(id uint64) (User, bool) {
	u, ok := s.users[id]
	if ok {
		delete(s.users, id)
	}
	return u, ok
}

// UserByName scans the user table for username. Usernames are not unique;
// when several users share one, the lowest ID wins.
func (s *Store) UserByName(username string) (User, bool) {
	var (
		found User
		ok    bool
	)
	for _, u := range s.users {
		if u.Username != username {
			continue
		}
		if !ok || u.ID < found.ID {
			found, ok = u, true
		}
	}
	return found, ok
}

// Len returns the number of tasks and users currently held.
func (s *Store) Len() (tasks, users int) {
	return len(s.tasks), len(s.users)
}
