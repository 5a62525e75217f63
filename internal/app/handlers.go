package app

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/klabast/wb-services/treatment-calendar/internal/program"
)

// Server wires the HTTP API to the snapshot store.
type Server struct {
	cfg     *Config
	store   *Store
	broker  *Broker
	creds   *Credentials
	tokens  *TokenIssuer
	limiter *RateLimiter
	metrics *Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// ServerOptions are the collaborators of a Server.
type ServerOptions struct {
	Config      *Config
	Store       *Store
	Broker      *Broker
	Credentials *Credentials
	Metrics     *Metrics
	Logger      *zap.Logger
	Now         func() time.Time
}

// NewServer creates the API server. The broker is registered on the store.
func NewServer(opts ServerOptions) *Server {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	s := &Server{
		cfg:     opts.Config,
		store:   opts.Store,
		broker:  opts.Broker,
		creds:   opts.Credentials,
		tokens:  NewTokenIssuer(opts.Config.SecretKey, opts.Config.TokenTTL, now),
		limiter: NewRateLimiter(opts.Config.RateLimit, opts.Metrics),
		metrics: opts.Metrics,
		logger:  opts.Logger,
		now:     now,
	}
	s.store.AddNotifier(s.broker)
	return s
}

// Routes returns the API handler.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	protected := func(h http.HandlerFunc) http.HandlerFunc {
		return s.limiter.Limit(s.RequireToken(h))
	}

	mux.HandleFunc("/login", s.HandleLogin)
	mux.HandleFunc("/api/treatment", protected(s.HandleTreatment))
	mux.HandleFunc("/events", protected(s.HandleEvents))
	mux.HandleFunc("/api/calendar", protected(s.HandleCalendar))
	mux.HandleFunc("/api/calendar/export", protected(s.HandleExport))
	mux.HandleFunc("/healthz", s.HandleHealth)
	mux.Handle("/metrics", s.metrics.Handler())

	return WithCORS(s.cfg.ClientURL, mux)
}

// HandleLogin exchanges credentials for a token.
func (s *Server) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes)).Decode(&req); err != nil {
		writeText(w, http.StatusBadRequest, ErrInvalidBody)
		return
	}
	s.logger.Info("Received login request", zap.String("user", req.Username))

	known, ok := s.creds.Check(req.Username, req.Password)
	if !known {
		writeText(w, http.StatusUnauthorized, MsgUnknownUser)
		return
	}
	if !ok {
		s.logger.Warn("Failed auth attempt", zap.String("remote", r.RemoteAddr), zap.String("user", req.Username))
		writeText(w, http.StatusUnauthorized, MsgInvalidPassword)
		return
	}

	token, err := s.tokens.Issue(req.Username)
	if err != nil {
		s.logger.Error("Error issuing token", zap.Error(err))
		writeText(w, http.StatusInternalServerError, ErrInternalServer)
		return
	}
	s.writeJSON(w, http.StatusOK, LoginResponse{Token: token})
}

// HandleTreatment submits (POST) or returns (GET) the treatment program.
func (s *Server) HandleTreatment(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.submitTreatment(w, r)
	case http.MethodGet:
		s.getTreatment(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) submitTreatment(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeText(w, http.StatusRequestEntityTooLarge, ErrInvalidBody)
			return
		}
		writeText(w, http.StatusBadRequest, ErrInvalidBody)
		return
	}

	res, _, err := s.store.Submit(r.Context(), body, s.now())
	if err != nil {
		s.logger.Error("Error storing treatment program", zap.Error(err))
		writeText(w, http.StatusInternalServerError, ErrInternalServer)
		return
	}
	if !res.IsValid {
		writeText(w, http.StatusBadRequest, res.ErrorMessage)
		return
	}
	writeText(w, http.StatusOK, MsgProgramStored)
}

func (s *Server) getTreatment(w http.ResponseWriter, _ *http.Request) {
	snap := s.store.Current()
	if snap == nil {
		writeText(w, http.StatusNotFound, MsgNoProgram)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(snap.Raw); err != nil {
		s.logger.Error("Error writing treatment program", zap.Error(err))
	}
}

// HandleCalendar returns the resolved month view
// Query param: date (optional, YYYY-MM-DD, defaults to today)
func (s *Server) HandleCalendar(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	view, ok := s.resolve(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

// HandleExport downloads the resolved month as ICS, CSV or JSON
// Query params: format (required), date (optional), reminder (optional HH:MM)
func (s *Server) HandleExport(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	format := ExportFormat(r.URL.Query().Get("format"))
	switch format {
	case FormatICS, FormatCSV, FormatJSON:
	default:
		writeText(w, http.StatusBadRequest, ErrInvalidFormat)
		return
	}

	view, ok := s.resolve(w, r)
	if !ok {
		return
	}

	var err error
	switch format {
	case FormatICS:
		err = GenerateICS(w, view, r.URL.Query().Get("reminder"), s.now())
	case FormatCSV:
		err = GenerateCSV(w, view)
	case FormatJSON:
		err = GenerateJSON(w, view)
	}
	if err != nil {
		s.logger.Error("Error writing export", zap.String("format", string(format)), zap.Error(err))
	}
}

// resolve runs one pass for the requested date and writes the error
// response itself when it fails.
func (s *Server) resolve(w http.ResponseWriter, r *http.Request) (*program.MonthView, bool) {
	at, ok := s.dateParam(r)
	if !ok {
		writeText(w, http.StatusBadRequest, ErrInvalidDateFormat)
		return nil, false
	}
	view, err := s.store.Resolve(at)
	if err != nil {
		s.logger.Error("Error resolving month", zap.Error(err))
		writeText(w, http.StatusInternalServerError, ErrInternalServer)
		return nil, false
	}
	return view, true
}

// HandleHealth reports liveness.
func (s *Server) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeText(w, http.StatusOK, "ok")
}
