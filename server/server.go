package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"oem_consult/consult"
	"oem_consult/generator"
	"oem_consult/logger"
	"oem_consult/negotiation"
	"oem_consult/questionnaire"
	"oem_consult/report"
)

//go:embed web
var embeddedStatic embed.FS

const (
	llmTimeout   = 60 * time.Second
	maxBodyBytes = 1 << 20
)

type Server struct {
	assistant consult.Assistant
	catalog   *questionnaire.Catalog
	opts      consult.Options
	store     *sessionStore
	log       logger.Logger
	validate  *validator.Validate
	staticFS  http.Handler
	timeout   time.Duration
}

type Config struct {
	Catalog       *questionnaire.Catalog
	HistoryWindow int
	SessionTTL    time.Duration
	LLMTimeout    time.Duration
}

func New(assistant consult.Assistant, cfg Config, log logger.Logger) (*Server, error) {
	if assistant == nil {
		return nil, errors.New("assistant required")
	}
	if log == nil {
		return nil, errors.New("logger required")
	}
	if cfg.Catalog == nil {
		cfg.Catalog = questionnaire.DefaultCatalog()
	}
	if cfg.LLMTimeout <= 0 {
		cfg.LLMTimeout = llmTimeout
	}

	sub, err := fs.Sub(embeddedStatic, "web")
	if err != nil {
		return nil, err
	}

	return &Server{
		assistant: assistant,
		catalog:   cfg.Catalog,
		opts:      consult.Options{HistoryWindow: cfg.HistoryWindow},
		store:     newStore(cfg.SessionTTL),
		log:       log,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		staticFS:  http.FileServer(http.FS(sub)),
		timeout:   cfg.LLMTimeout,
	}, nil
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/sessions", s.handleSessionCreate)
	mux.HandleFunc("GET /api/sessions/{id}", s.handleSessionGet)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.handleSessionDelete)
	mux.HandleFunc("GET /api/sessions/{id}/report", s.handleReport)
	mux.HandleFunc("POST /api/sessions/{id}/answer", s.handleAnswer)
	mux.HandleFunc("POST /api/sessions/{id}/commit", s.command(func(*http.Request) (consult.Command, error) {
		return consult.Commit(), nil
	}))
	mux.HandleFunc("POST /api/sessions/{id}/redraft", s.command(func(*http.Request) (consult.Command, error) {
		return consult.Redraft(), nil
	}))
	mux.HandleFunc("POST /api/sessions/{id}/negotiation/start", s.handleNegotiationStart)
	mux.HandleFunc("POST /api/sessions/{id}/negotiation/messages", s.handleNegotiationMessage)
	mux.HandleFunc("POST /api/sessions/{id}/negotiation/end", s.command(func(*http.Request) (consult.Command, error) {
		return consult.EndNegotiation(), nil
	}))
	mux.Handle("/", s.staticFS)
	return s.logMiddleware(mux)
}

// --- Handlers ---

type answerReq struct {
	Answer string `json:"answer"`
}

type negotiationStartReq struct {
	ProposedMOQ int `json:"proposed_moq" validate:"required,min=1000"`
}

type negotiationMessageReq struct {
	Text string `json:"text" validate:"required"`
}

type errorResp struct {
	Error string `json:"error"`
}

func (s *Server) handleSessionCreate(w http.ResponseWriter, r *http.Request) {
	id := uuid.Must(uuid.NewV7()).String()
	sess := consult.NewSession(id, s.catalog, s.assistant, s.opts)
	s.store.set(sess)
	s.log.Info("server", "session created", map[string]interface{}{"session_id": id})

	v, err := sess.Apply(r.Context(), consult.Refresh(""))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/sessions/"+id)
	writeJSON(w, http.StatusCreated, v)
}

func (s *Server) handleSessionGet(w http.ResponseWriter, r *http.Request) {
	s.command(func(r *http.Request) (consult.Command, error) {
		return consult.Refresh(r.URL.Query().Get("category")), nil
	})(w, r)
}

func (s *Server) handleSessionDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := s.store.get(id); !ok {
		s.writeError(w, r, consult.ErrSessionNotFound)
		return
	}
	s.store.delete(id)
	s.log.Info("server", "session ended", map[string]interface{}{"session_id": id})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.store.get(r.PathValue("id"))
	if !ok {
		s.writeError(w, r, consult.ErrSessionNotFound)
		return
	}
	page, err := report.HTML(sess.Transcript())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(page))
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	s.command(func(r *http.Request) (consult.Command, error) {
		var req answerReq
		if err := s.decode(r, &req); err != nil {
			return consult.Command{}, err
		}
		return consult.SubmitAnswer(req.Answer), nil
	})(w, r)
}

func (s *Server) handleNegotiationStart(w http.ResponseWriter, r *http.Request) {
	s.command(func(r *http.Request) (consult.Command, error) {
		var req negotiationStartReq
		if err := s.decode(r, &req); err != nil {
			return consult.Command{}, err
		}
		return consult.StartNegotiation(req.ProposedMOQ), nil
	})(w, r)
}

func (s *Server) handleNegotiationMessage(w http.ResponseWriter, r *http.Request) {
	s.command(func(r *http.Request) (consult.Command, error) {
		var req negotiationMessageReq
		if err := s.decode(r, &req); err != nil {
			return consult.Command{}, err
		}
		return consult.SendMessage(req.Text), nil
	})(w, r)
}

// command resolves the session, builds the command from the request and
// writes the resulting view.
func (s *Server) command(build func(*http.Request) (consult.Command, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		sess, ok := s.store.get(id)
		if !ok {
			s.writeError(w, r, consult.ErrSessionNotFound)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		cmd, err := build(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
		defer cancel()
		v, err := sess.Apply(ctx, cmd)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.store.touch(sess)
		writeJSON(w, http.StatusOK, v)
	}
}

// --- Helpers ---

type badRequest struct{ err error }

func (b badRequest) Error() string { return b.err.Error() }
func (b badRequest) Unwrap() error { return b.err }

func (s *Server) decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return badRequest{err}
	}
	if err := s.validate.Struct(v); err != nil {
		return badRequest{err}
	}
	return nil
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	var (
		perr   *generator.ProviderError
		bad    badRequest
		tooBig *http.MaxBytesError
	)
	switch {
	case errors.Is(err, consult.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.As(err, &tooBig):
		status = http.StatusRequestEntityTooLarge
	case errors.As(err, &bad),
		errors.Is(err, negotiation.ErrInvalidMOQ),
		errors.Is(err, negotiation.ErrEmptyMessage),
		errors.Is(err, questionnaire.ErrUnknownCategory):
		status = http.StatusBadRequest
	case errors.Is(err, questionnaire.ErrInvalidState),
		errors.Is(err, negotiation.ErrInvalidState):
		status = http.StatusConflict
	case errors.As(err, &perr):
		status = http.StatusBadGateway
	}

	details := map[string]interface{}{"path": r.URL.Path, "status": status, "error": err}
	if status >= http.StatusInternalServerError {
		s.log.Error("server", "request failed", details)
	} else {
		s.log.Warn("server", "request rejected", details)
	}
	writeJSON(w, status, errorResp{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Info("http", "request", map[string]interface{}{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rec.status,
			"duration_ms": time.Since(start).Milliseconds(),
		})
	})
}
