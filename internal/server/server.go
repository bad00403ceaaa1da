// Package server exposes stored benchmark results over HTTP.
package server

import (
	"context"
	"net/http"

	"github.com/maxbolgarin/erro"
	"github.com/maxbolgarin/logze/v2"
	"github.com/maxbolgarin/servex/v2"

	"github.com/vulnbench/vulnbench/internal/model"
)

// Server serves ground truth, verdicts and per-detector summaries from the
// results store. It is read-only: benchmark runs happen in the CLI phases,
// the server only reports what they produced.
type Server struct {
	store  model.Store
	config Config
	log    logze.Logger
	server *servex.Server
}

// New creates a results server.
func New(cfg Config, store model.Store) (*Server, error) {
	if err := cfg.PrepareAndValidate(); err != nil {
		return nil, erro.Wrap(err, "validate config")
	}

	log := logze.With("module", "server")

	server, err := servex.NewServer(
		servex.WithReadTimeout(cfg.Timeout),
		servex.WithIdleTimeout(cfg.Timeout*2),
		servex.WithLogger(log),
		servex.WithHealthEndpoint(),
		servex.WithDefaultMetrics(),
		servex.WithCertificate(cfg.Certificate),
	)
	if err != nil {
		return nil, erro.Wrap(err, "failed to create server")
	}

	h := &Server{
		store:  store,
		config: cfg,
		log:    log,
		server: server,
	}

	server.HandleFunc("/api/v1/summary", h.handleSummary)
	server.HandleFunc("/api/v1/verdicts", h.handleVerdicts)
	server.HandleFunc("/api/v1/groundtruth", h.handleGroundTruth)

	return h, nil
}

// Start starts the results server.
func (h *Server) Start(ctx context.Context) error {
	if h.config.EnableHTTPS {
		return h.server.StartHTTPS(h.config.Address)
	}
	return h.server.StartHTTP(h.config.Address)
}

// Stop stops the results server.
func (h *Server) Stop(ctx context.Context) error {
	return h.server.Shutdown(ctx)
}

func (h *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	ctx := servex.NewContext(w, r)
	if r.Method != http.MethodGet {
		ctx.Response(http.StatusMethodNotAllowed)
		return
	}

	summaries := make([]model.DetectorSummary, 0, 2)
	for _, kind := range []model.DetectorKind{model.DetectorAI, model.DetectorStatic} {
		summary, err := h.store.Summary(r.Context(), kind)
		if err != nil {
			ctx.InternalServerError(err, "failed to summarize verdicts")
			return
		}
		summaries = append(summaries, summary)
	}

	ctx.Response(http.StatusOK, summaries)
}

func (h *Server) handleVerdicts(w http.ResponseWriter, r *http.Request) {
	ctx := servex.NewContext(w, r)
	if r.Method != http.MethodGet {
		ctx.Response(http.StatusMethodNotAllowed)
		return
	}

	kind, err := detectorParam(r)
	if err != nil {
		ctx.BadRequest(err, "invalid detector parameter")
		return
	}

	verdicts, err := h.store.ListVerdicts(r.Context(), kind)
	if err != nil {
		ctx.InternalServerError(err, "failed to list verdicts")
		return
	}

	ctx.Response(http.StatusOK, verdicts)
}

func (h *Server) handleGroundTruth(w http.ResponseWriter, r *http.Request) {
	ctx := servex.NewContext(w, r)
	if r.Method != http.MethodGet {
		ctx.Response(http.StatusMethodNotAllowed)
		return
	}

	records, err := h.store.ListGroundTruth(r.Context())
	if err != nil {
		ctx.InternalServerError(err, "failed to list ground truth")
		return
	}

	ctx.Response(http.StatusOK, records)
}

// detectorParam reads the mandatory "detector" query parameter.
func detectorParam(r *http.Request) (model.DetectorKind, error) {
	switch kind := model.DetectorKind(r.URL.Query().Get("detector")); kind {
	case model.DetectorAI, model.DetectorStatic:
		return kind, nil
	case "":
		return "", erro.New("detector parameter is required: ai or static")
	default:
		return "", erro.New("unknown detector: %s", kind)
	}
}
