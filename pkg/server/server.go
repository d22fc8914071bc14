package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/mittwald/mittsmoke/pkg/engine"
	"github.com/mittwald/mittsmoke/pkg/probe"
	"github.com/mittwald/mittsmoke/pkg/registry"
	"github.com/mittwald/mittsmoke/pkg/report"
	log "github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

const (
	MessageTypeResult  = "result"
	MessageTypeSummary = "summary"
)

// Handler serves the registered suite over HTTP. Runs are serialized so the
// deployment never sees two suites at once.
type Handler struct {
	registry *registry.Registry
	target   string
	upgrader websocket.Upgrader

	runLock sync.Mutex
}

// ProbeInfo describes one registered probe.
type ProbeInfo struct {
	Name    string     `json:"name"`
	Kind    probe.Kind `json:"kind"`
	Driver  string     `json:"driver"`
	Target  string     `json:"target,omitempty"`
	Timeout string     `json:"timeout"`
	Retries int        `json:"retries,omitempty"`
	CanFail bool       `json:"canFail,omitempty"`
}

// StreamMessage is sent over /v1/run/stream: one of type "result" per
// executed probe, then one of type "summary".
type StreamMessage struct {
	Type     string         `json:"type"`
	RunID    string         `json:"runId,omitempty"`
	Result   *report.Result `json:"result,omitempty"`
	Overall  report.Outcome `json:"overall,omitempty"`
	ExitCode int            `json:"exitCode"`
	Passed   int            `json:"passed"`
	Failed   int            `json:"failed"`
	Skipped  int            `json:"skipped"`
}

func NewHandler(reg *registry.Registry, target string) *Handler {
	return &Handler{
		registry: reg,
		target:   target,
	}
}

func (h *Handler) Router() *mux.Router {
	m := mux.NewRouter()
	m.Path("/status").Methods(http.MethodGet).HandlerFunc(h.HandleStatus)
	m.Path("/v1/probes").Methods(http.MethodGet).HandlerFunc(h.HandleProbes)
	m.Path("/v1/run/stream").Methods(http.MethodGet).HandlerFunc(h.HandleStream)
	return m
}

// HandleStatus runs every probe and answers with the JSON report; a failing
// run is answered with 503.
func (h *Handler) HandleStatus(res http.ResponseWriter, req *http.Request) {
	h.runLock.Lock()
	rep := engine.New(engine.WithTarget(h.target)).Run(req.Context(), h.registry.List(), engine.Continue)
	h.runLock.Unlock()

	res.Header().Set("Content-Type", "application/json")
	if rep.Overall() != report.Pass {
		res.WriteHeader(http.StatusServiceUnavailable)
	}

	if err := (&report.JSONRenderer{}).Render(res, rep); err != nil {
		log.WithError(err).Error("failed to write status response")
	}
}

func (h *Handler) HandleProbes(res http.ResponseWriter, req *http.Request) {
	defs := h.registry.List()
	out := make([]ProbeInfo, 0, len(defs))
	for _, d := range defs {
		out = append(out, ProbeInfo{
			Name:    d.Name,
			Kind:    d.Kind,
			Driver:  d.Driver,
			Target:  d.Target,
			Timeout: d.Timeout.String(),
			Retries: d.Retries,
			CanFail: d.CanFail,
		})
	}

	res.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(res).Encode(out)
}

// HandleStream upgrades to a websocket and sends one message per executed
// probe followed by a summary message.
func (h *Handler) HandleStream(res http.ResponseWriter, req *http.Request) {
	mode, err := engine.ParseMode(req.URL.Query().Get("mode"))
	if err != nil {
		http.Error(res, err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(res, req, nil)
	if err != nil {
		log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(req.Context())
	defer cancel()

	observer := func(r report.Result) {
		if err := conn.WriteJSON(StreamMessage{Type: MessageTypeResult, Result: &r}); err != nil {
			log.WithError(err).Warn("stream client went away, cancelling run")
			cancel()
		}
	}

	h.runLock.Lock()
	rep := engine.New(engine.WithTarget(h.target), engine.WithObserver(observer)).Run(ctx, h.registry.List(), mode)
	h.runLock.Unlock()

	passed, failed, skipped := rep.Counts()
	summary := StreamMessage{
		Type:     MessageTypeSummary,
		RunID:    rep.RunID,
		Overall:  rep.Overall(),
		ExitCode: report.ExitCode(rep),
		Passed:   passed,
		Failed:   failed,
		Skipped:  skipped,
	}
	if err := conn.WriteJSON(summary); err != nil {
		return
	}

	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// Run serves h on listen until ctx is cancelled.
func Run(ctx context.Context, h *Handler, listen string) error {
	server := http.Server{
		Addr:    listen,
		Handler: h.Router(),
	}

	go func() {
		<-ctx.Done()
		log.Info("shutting down status server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Infof("status server listens on %s", listen)

	err := server.ListenAndServe()
	if err != http.ErrServerClosed {
		return err
	}

	return nil
}
