// Package metrics exposes the gate's counters in the Prometheus text format.
package metrics

import (
	"bytes"
	"log/slog"
	"net/http"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"

	"github.com/taskvault/taskvault/internal/gate"
)

const contentType = "text/plain; version=0.0.4; charset=utf-8"

// StatsSource provides the counters to expose. *gate.Gate satisfies it.
type StatsSource interface {
	Stats() gate.Stats
}

// Handler serves GET /metrics.
type Handler struct {
	src     StatsSource
	clients func() int
}

// New returns a Handler reading from src. clients, if non-nil, reports the
// number of connected websocket clients.
func New(src StatsSource, clients func() int) *Handler {
	return &Handler{src: src, clients: clients}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	n := 0
	if h.clients != nil {
		n = h.clients()
	}

	var buf bytes.Buffer
	for _, mf := range Families(h.src.Stats(), n) {
		if _, err := expfmt.MetricFamilyToText(&buf, mf); err != nil {
			slog.Error("metrics: encode failed", "family", mf.GetName(), "err", err)
			http.Error(w, "encode metrics", http.StatusInternalServerError)
			return
		}
	}
	w.Header().Set("Content-Type", contentType)
	w.Write(buf.Bytes()) //nolint:errcheck
}

// Families converts s into metric families, in a fixed order.
func Families(s gate.Stats, wsClients int) []*dto.MetricFamily {
	lastSave := 0.0
	if !s.LastSave.IsZero() {
		lastSave = float64(s.LastSave.UnixNano()) / 1e9
	}
	return []*dto.MetricFamily{
		gauge("taskvault_tasks", "Tasks currently stored.", float64(s.Tasks)),
		gauge("taskvault_users", "Users currently stored.", float64(s.Users)),
		counter("taskvault_snapshot_saves_total", "Snapshot saves by outcome.",
			map[string]float64{"ok": float64(s.SavesOK), "error": float64(s.SavesFailed)}),
		gauge("taskvault_snapshot_last_save_timestamp_seconds",
			"Unix time of the last successful snapshot save.", lastSave),
		counter("taskvault_logins_total", "Login attempts by outcome.",
			map[string]float64{"ok": float64(s.LoginsOK), "error": float64(s.LoginsFailed)}),
		gauge("taskvault_ws_clients", "Connected websocket clients.", float64(wsClients)),
	}
}

func gauge(name, help string, v float64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name: proto.String(name),
		Help: proto.String(help),
		Type: dto.MetricType_GAUGE.Enum(),
		Metric: []*dto.Metric{{
			Gauge: &dto.Gauge{Value: proto.Float64(v)},
		}},
	}
}

// counter builds a family with one series per result label, ok first.
func counter(name, help string, byResult map[string]float64) *dto.MetricFamily {
	mf := &dto.MetricFamily{
		Name: proto.String(name),
		Help: proto.String(help),
		Type: dto.MetricType_COUNTER.Enum(),
	}
	for _, result := range []string{"ok", "error"} {
		mf.Metric = append(mf.Metric, &dto.Metric{
			Label:   []*dto.LabelPair{{Name: proto.String("result"), Value: proto.String(result)}},
			Counter: &dto.Counter{Value: proto.Float64(byResult[result])},
		})
	}
	return mf
}
