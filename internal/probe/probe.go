// Package probe serves the standard gRPC health service for taskvault.
//
// Two services are reported: "" (the process as a whole) and "snapshot",
// which goes NOT_SERVING after a failed snapshot save and back to SERVING
// after the next successful one. SnapshotSaved is meant to be passed to
// gate.WithSaveHook.
package probe

import (
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// SnapshotService is the health service name tracking snapshot saves.
const SnapshotService = "snapshot"

// Probe wraps a grpc health server.
type Probe struct {
	hs *health.Server
}

// New returns a Probe with every service SERVING.
func New() *Probe {
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(SnapshotService, healthpb.HealthCheckResponse_SERVING)
	return &Probe{hs: hs}
}

// Register attaches the health service to srv.
func (p *Probe) Register(srv *grpc.Server) {
	healthpb.RegisterHealthServer(srv, p.hs)
}

// SnapshotSaved records the outcome of a snapshot save.
func (p *Probe) SnapshotSaved(err error) {
	if err != nil {
		p.hs.SetServingStatus(SnapshotService, healthpb.HealthCheckResponse_NOT_SERVING)
		return
	}
	p.hs.SetServingStatus(SnapshotService, healthpb.HealthCheckResponse_SERVING)
}

// Shutdown marks every service NOT_SERVING so clients drain before exit.
func (p *Probe) Shutdown() {
	slog.Info("probe: marking services not serving")
	p.hs.Shutdown()
}
