// Package config loads taskvault's YAML configuration.
//
// Config fields:
//   - Server.HTTPAddr    - REST API listen address (default 127.0.0.1:8080)
//   - Server.GRPCPort    - gRPC health probe port (default 50051, 0 disables)
//   - Server.Auth.Mode   - "apikey" or "none"; guards /metrics and the probe
//   - Server.Auth.KeyEnv - environment variable holding the API key
//   - Server.Auth.Header - header / metadata key (default "x-api-key")
//   - Server.CORS.Enabled - allow browser calls from http://localhost origins
//   - Snapshot.Path      - snapshot file (default database.json)
//   - Log.Level          - debug | info | warn | error (default info)
//   - Events.Webhooks    - slack | teams | http targets, URL read from url_env
//
// Load(path, optional) applies defaults before unmarshalling, then validates.
// Watch(ctx, path, fn) re-runs Load on every write and hands the result to fn.
package config
