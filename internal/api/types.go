package api

import "errors"

// taskRequest is the body of POST /task and PUT /task/{id}. Pointer fields
// let the decoder tell a missing field from a zero value.
type taskRequest struct {
	ID        *uint64 `json:"id"`
	Name      *string `json:"name"`
	Completed *bool   `json:"completed"`
}

func (t *taskRequest) validate() error {
	switch {
	case t.ID == nil:
		return errors.New("missing field `id`")
	case t.Name == nil:
		return errors.New("missing field `name`")
	case t.Completed == nil:
		return errors.New("missing field `completed`")
	}
	return nil
}

// userRequest is the body of POST /register.
type userRequest struct {
	ID       *uint64 `json:"id"`
	Username *string `json:"username"`
	Password *string `json:"password"`
}

func (u *userRequest) validate() error {
	switch {
	case u.ID == nil:
		return errors.New("missing field `id`")
	case u.Username == nil:
		return errors.New("missing field `username`")
	case u.Password == nil:
		return errors.New("missing field `password`")
	}
	return nil
}

// loginRequest is the body of POST /login. Any extra fields, such as an id,
// are ignored.
type loginRequest struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
}

func (l *loginRequest) validate() error {
	switch {
	case l.Username == nil:
		return errors.New("missing field `username`")
	case l.Password == nil:
		return errors.New("missing field `password`")
	}
	return nil
}

// messageResponse is a generic JSON acknowledgement.
type messageResponse struct {
	Message string `json:"message"`
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}
