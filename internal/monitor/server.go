package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/san-kum/regsim/internal/logging"
)

// RecordWriter dumps the regulator record. *regulator.Regulator satisfies it.
type RecordWriter interface {
	Name() string
	Write(w io.Writer) error
}

type Server struct {
	metrics *Metrics
	record  RecordWriter
	logger  logr.Logger
	router  *mux.Router
}

type Status struct {
	Regulator   string  `json:"regulator"`
	Ticks       int     `json:"ticks"`
	TimeIndex   int     `json:"timeIndex"`
	Time        float64 `json:"time"`
	Measurement float64 `json:"measurement"`
	Target      float64 `json:"target"`
	Error       float64 `json:"error"`
	Signal      float64 `json:"signal"`
	Actuation   float64 `json:"actuation"`
}

func NewServer(m *Metrics, record RecordWriter, logger logr.Logger) *Server {
	s := &Server{metrics: m, record: record, logger: logger}

	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{})).Methods("GET")
	r.HandleFunc("/healthz", s.health).Methods("GET")
	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/status", s.status).Methods("GET")
	api.HandleFunc("/config", s.config).Methods("GET")
	s.router = r
	return s
}

// Handler returns the router wrapped with access logging and panic
// recovery.
func (s *Server) Handler() http.Handler {
	logged := handlers.LoggingHandler(logWriter{s.logger}, s.router)
	return handlers.RecoveryHandler(handlers.PrintRecoveryStack(false))(logged)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("Monitor listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, "ok\n")
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	tick, count := s.metrics.Last()
	st := Status{
		Regulator:   s.record.Name(),
		Ticks:       count,
		TimeIndex:   tick.Reading.Index,
		Time:        tick.Time,
		Measurement: tick.Reading.Measurement,
		Target:      tick.Reading.Target,
		Error:       tick.Reading.Error,
		Signal:      tick.Reading.Signal,
	}
	if len(tick.Control) > 0 {
		st.Actuation = tick.Control[0]
	}

	w.Header().Set("Content-Type", "application/json")
	if count == 0 {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(st)
}

func (s *Server) config(w http.ResponseWriter, r *http.Request) {
	var buf strings.Builder
	if err := s.record.Write(&buf); err != nil {
		s.logger.Error(err, "Failed to write regulator record")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	io.WriteString(w, buf.String())
}

// logWriter forwards access log lines to the logger.
type logWriter struct {
	logger logr.Logger
}

func (l logWriter) Write(p []byte) (int, error) {
	l.logger.V(logging.VERBOSE).Info(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}
