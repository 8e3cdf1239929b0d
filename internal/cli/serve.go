package cli

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/hybs/groupbypass/internal/config"
	"github.com/hybs/groupbypass/pkg/buildinfo"
	apperr "github.com/hybs/groupbypass/pkg/errors"
	"github.com/hybs/groupbypass/pkg/panel"
)

const shutdownTimeout = 5 * time.Second

// serveCommand creates the serve command exposing one workflow over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string
	var autosave bool

	cmd := &cobra.Command{
		Use:   "serve <workflow>",
		Short: "Serve the groups of a workflow over HTTP",
		Long: `Serve the panel of one workflow as a JSON API.

  GET  /groups                 list groups in panel order
  POST /groups/{index}/toggle  set or flip the bypass state of a group
  GET  /order                  order mode, order string and resulting labels
  PUT  /order                  change the order mode and order string
  POST /refresh                relist the groups
  POST /save                   write the workflow back to its file

Without --autosave, changes stay in memory until POST /save.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeWorkflow,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("addr") {
				addr = c.cfg.Serve.Addr
			}
			s, err := c.openSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			srv := newServer(s, c.Logger, autosave)
			return srv.run(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, "+config.DefaultAddr+")")
	cmd.Flags().BoolVar(&autosave, "autosave", false, "save the workflow after every change")

	return cmd
}

// =============================================================================
// Server
// =============================================================================

// server serializes all requests on one session.
type server struct {
	mu       sync.Mutex
	s        *session
	logger   *log.Logger
	autosave bool
}

func newServer(s *session, logger *log.Logger, autosave bool) *server {
	return &server{s: s, logger: logger, autosave: autosave}
}

// run listens on addr until ctx ends, then shuts down gracefully.
func (srv *server) run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	hs := &http.Server{
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() { errc <- hs.Serve(ln) }()
	printInfo("Serving %s on http://%s", srv.s.path, ln.Addr())

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	srv.logger.Info("server stopped")
	return ctx.Err()
}

func (srv *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(srv.logRequests)

	r.Get("/groups", srv.handleGroups)
	r.Post("/groups/{index}/toggle", srv.handleToggle)
	r.Get("/order", srv.handleGetOrder)
	r.Put("/order", srv.handlePutOrder)
	r.Post("/refresh", srv.handleRefresh)
	r.Post("/save", srv.handleSave)
	r.Get("/version", handleVersion)

	return r
}

func (srv *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		srv.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"took", time.Since(start),
			"id", middleware.GetReqID(r.Context()),
		)
	})
}

// =============================================================================
// Payloads
// =============================================================================

type groupsResponse struct {
	OrderMode string      `json:"order_mode"`
	Groups    []groupJSON `json:"groups"`
}

type toggleRequest struct {
	Bypassed *bool `json:"bypassed"`
}

type orderPayload struct {
	Mode   string   `json:"mode"`
	Titles *string  `json:"titles,omitempty"`
	Labels []string `json:"labels,omitempty"`
}

type saveResponse struct {
	Path  string `json:"path"`
	Saved bool   `json:"saved"`
}

type errorResponse struct {
	Code  string `json:"code,omitempty"`
	Error string `json:"error"`
}

// =============================================================================
// Handlers
// =============================================================================

func (srv *server) handleGroups(w http.ResponseWriter, r *http.Request) {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	if _, err := srv.s.panel.Tick(time.Now()); err != nil && !errors.Is(err, panel.ErrNotReady) {
		srv.writeError(w, err)
		return
	}
	srv.writeGroups(w)
}

func (srv *server) handleToggle(w http.ResponseWriter, r *http.Request) {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	i, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		srv.writeError(w, apperr.Wrap(apperr.ErrCodeInvalidInput, err, "group index"))
		return
	}
	var req toggleRequest
	if err := decodeBody(r, &req); err != nil {
		srv.writeError(w, err)
		return
	}
	if i < 0 || i >= srv.s.panel.Len() {
		srv.writeError(w, apperr.New(apperr.ErrCodeGroupNotFound, "no group at index %d", i))
		return
	}

	on := !srv.s.panel.Toggles()[i].On
	if req.Bypassed != nil {
		on = *req.Bypassed
	}
	if err := srv.s.panel.Toggle(i, on); err != nil {
		srv.writeError(w, err)
		return
	}
	if err := srv.persist(); err != nil {
		srv.writeError(w, err)
		return
	}
	srv.writeGroups(w)
}

func (srv *server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	srv.writeOrder(w)
}

func (srv *server) handlePutOrder(w http.ResponseWriter, r *http.Request) {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	var req orderPayload
	if err := decodeBody(r, &req); err != nil {
		srv.writeError(w, err)
		return
	}
	p := srv.s.panel

	mode := p.OrderMode()
	if req.Mode != "" {
		m, err := panel.ParseOrderMode(req.Mode)
		if err != nil {
			srv.writeError(w, err)
			return
		}
		mode = m
	}

	titles := p.OrderTitles()
	switch {
	case req.Labels != nil:
		for _, l := range req.Labels {
			if err := apperr.ValidateLabel(l); err != nil {
				srv.writeError(w, err)
				return
			}
		}
		titles = panel.FormatOrder(req.Labels)
	case req.Titles != nil:
		titles = *req.Titles
	}

	if err := p.SetOrderTitles(titles); err != nil {
		srv.writeError(w, err)
		return
	}
	if err := p.SetOrderMode(mode); err != nil {
		srv.writeError(w, err)
		return
	}
	if err := srv.persist(); err != nil {
		srv.writeError(w, err)
		return
	}
	srv.writeOrder(w)
}

func (srv *server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	if err := srv.s.panel.RequestRefresh(); err != nil {
		srv.writeError(w, err)
		return
	}
	srv.writeGroups(w)
}

func handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSONStatus(w, http.StatusOK, buildinfo.Get())
}

func (srv *server) handleSave(w http.ResponseWriter, r *http.Request) {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	saved := srv.s.wf.Modified()
	if saved {
		if _, err := srv.s.save(""); err != nil {
			srv.writeError(w, err)
			return
		}
	}
	writeJSONStatus(w, http.StatusOK, saveResponse{Path: srv.s.path, Saved: saved})
}

// persist saves after a change when autosave is on.
func (srv *server) persist() error {
	if !srv.autosave {
		return nil
	}
	_, err := srv.s.save("")
	return err
}

func (srv *server) writeGroups(w http.ResponseWriter) {
	writeJSONStatus(w, http.StatusOK, groupsResponse{
		OrderMode: srv.s.panel.OrderMode().String(),
		Groups:    toGroupJSON(srv.s.panel),
	})
}

func (srv *server) writeOrder(w http.ResponseWriter) {
	p := srv.s.panel
	titles := p.OrderTitles()
	labels := make([]string, 0, p.Len())
	for _, t := range p.Toggles() {
		labels = append(labels, t.Entry.Label)
	}
	writeJSONStatus(w, http.StatusOK, orderPayload{Mode: p.OrderMode().String(), Titles: &titles, Labels: labels})
}

func (srv *server) writeError(w http.ResponseWriter, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		srv.logger.Error("request failed", "err", err)
	}
	writeJSONStatus(w, status, errorResponse{Code: string(apperr.GetCode(err)), Error: apperr.UserMessage(err)})
}

// decodeBody reads a JSON body into v. An empty body leaves v unchanged.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return apperr.Wrap(apperr.ErrCodeInvalidInput, err, "invalid request body")
	}
	return nil
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
