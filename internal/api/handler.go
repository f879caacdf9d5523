package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/taskvault/taskvault/internal/auth"
	"github.com/taskvault/taskvault/internal/gate"
	"github.com/taskvault/taskvault/internal/store"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Backend is the gate surface the handlers use. *gate.Gate satisfies it.
type Backend interface {
	UpsertTask(t store.Task) error
	Task(id uint64) (store.Task, bool)
	Tasks() []store.Task
	DeleteTask(id uint64) (store.Task, bool, error)
	UpsertUser(u store.User) error
	Login(c auth.Credentials) error
}

// Handler serves the task and user endpoints.
type Handler struct {
	backend Backend
	mux     *http.ServeMux
}

// New creates a Handler wired to b and registers all routes.
func New(b Backend) *Handler {
	h := &Handler{backend: b, mux: http.NewServeMux()}

	h.mux.HandleFunc("/task", h.tasks)
	h.mux.HandleFunc("/task/", h.task) // extracts {id}
	h.mux.HandleFunc("/register", h.register)
	h.mux.HandleFunc("/login", h.login)
	h.mux.HandleFunc("/healthz", h.healthz)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// tasks serves GET /task (list) and POST /task (create or replace).
func (h *Handler) tasks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		jsonResp(w, http.StatusOK, h.backend.Tasks())
	case http.MethodPost:
		t, ok := decodeTask(w, r)
		if !ok {
			return
		}
		h.ack(w, "upsert task", t.ID, h.backend.UpsertTask(t))
	default:
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// task serves GET, PUT and DELETE on /task/{id}.
func (h *Handler) task(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimPrefix(r.URL.Path, "/task/")
	if raw == "" {
		h.tasks(w, r)
		return
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		jsonErr(w, http.StatusBadRequest, fmt.Sprintf("invalid task id %q", raw))
		return
	}

	switch r.Method {
	case http.MethodGet:
		t, ok := h.backend.Task(id)
		if !ok {
			jsonErr(w, http.StatusNotFound, "task not found")
			return
		}
		jsonResp(w, http.StatusOK, t)

	case http.MethodPut:
		t, ok := decodeTask(w, r)
		if !ok {
			return
		}
		if t.ID != id {
			jsonErr(w, http.StatusBadRequest, fmt.Sprintf("body id %d does not match path id %d", t.ID, id))
			return
		}
		h.ack(w, "upsert task", t.ID, h.backend.UpsertTask(t))

	case http.MethodDelete:
		t, ok, err := h.backend.DeleteTask(id)
		logPersist("delete task", id, err)
		if !ok {
			jsonResp(w, http.StatusOK, nil)
			return
		}
		jsonResp(w, http.StatusOK, t)

	default:
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// register serves POST /register. Usernames are not checked for uniqueness.
func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req userRequest
	if !decode(w, r, &req, req.validate) {
		return
	}
	u := store.User{ID: *req.ID, Username: *req.Username, Password: *req.Password}
	h.ack(w, "register user", u.ID, h.backend.UpsertUser(u))
}

// login serves POST /login. Unknown user and wrong password get the same reply.
func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req loginRequest
	if !decode(w, r, &req, req.validate) {
		return
	}
	err := h.backend.Login(auth.Credentials{Username: *req.Username, Password: *req.Password})
	if err != nil {
		jsonErr(w, http.StatusUnauthorized, "invalid username or password")
		return
	}
	jsonResp(w, http.StatusOK, messageResponse{Message: "Logged in!"})
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- helpers ----------------------------------------------------------------

// ack answers a mutation with 201. A snapshot failure does not change the
// reply: the mutation is applied in memory and the gate has already logged it.
func (h *Handler) ack(w http.ResponseWriter, op string, id uint64, err error) {
	logPersist(op, id, err)
	w.WriteHeader(http.StatusCreated)
}

func logPersist(op string, id uint64, err error) {
	if err != nil && errors.Is(err, gate.ErrPersist) {
		slog.Warn("api: mutation applied but not persisted", "op", op, "id", id, "err", err)
	}
}

func decodeTask(w http.ResponseWriter, r *http.Request) (store.Task, bool) {
	var req taskRequest
	if !decode(w, r, &req, req.validate) {
		return store.Task{}, false
	}
	return store.Task{ID: *req.ID, Name: *req.Name, Completed: *req.Completed}, true
}

// decode reads a JSON body into v and runs validate. It writes a 400 and
// returns false on any problem. validate must have a pointer receiver bound to
// the same value as v so that it sees the decoded fields.
func decode(w http.ResponseWriter, r *http.Request, v interface{}, validate func() error) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		jsonErr(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	if err := validate(); err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
