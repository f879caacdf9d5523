// Package auth checks user credentials and guards operational endpoints.
//
// Login(finder, creds) matches a username/password pair against the user
// table. Unknown users and wrong passwords both yield ErrInvalidCredentials so
// callers cannot tell which check failed. Passwords are compared in cleartext.
//
// Guard holds the API-key policy for operational endpoints. Middleware wraps an
// http.Handler; UnaryInterceptor returns a gRPC interceptor. When the mode is
// not "apikey" or no key is configured, both pass every request through.
package auth
