// Package httpapi exposes the scan pipeline to scanner devices and displays
// over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/roach88/barcodebuddy/internal/catalog"
	"github.com/roach88/barcodebuddy/internal/scan"
	"github.com/roach88/barcodebuddy/internal/state"
	"github.com/roach88/barcodebuddy/internal/store"
)

// Scanner processes one scan. Implemented by *scan.Processor.
type Scanner interface {
	ProcessScan(ctx context.Context, barcode string) (scan.Outcome, error)
}

// StateMachine reads and selects the transaction state.
// Implemented by *state.Machine.
type StateMachine interface {
	Get(ctx context.Context) (state.State, error)
	Set(ctx context.Context, s state.State) error
}

// BarcodeLister lists the unknown-barcode cache. Implemented by *store.Store.
type BarcodeLister interface {
	ListBarcodes(ctx context.Context) (known, unknown []store.CachedBarcode, err error)
}

// Deps are the collaborators of the router. Websocket may be nil.
type Deps struct {
	Scanner   Scanner
	State     StateMachine
	Barcodes  BarcodeLister
	Websocket http.Handler
	Logger    *slog.Logger
}

// Response is the JSON envelope of every endpoint.
type Response struct {
	Status string    `json:"status"` // "ok" or "error"
	Data   any       `json:"data,omitempty"`
	Error  *APIError `json:"error,omitempty"`
}

// APIError describes a failed request.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes for request problems that are not scan outcomes.
const (
	CodeMissingText  = "MISSING_TEXT"
	CodeInvalidState = "INVALID_STATE"
	CodeInternal     = "INTERNAL"
)

type server struct {
	scanner  Scanner
	state    StateMachine
	barcodes BarcodeLister
	logger   *slog.Logger
}

// NewRouter builds the HTTP routes:
//
//	GET|POST /api/action/scan?text=<barcode>
//	GET      /api/state
//	POST     /api/state/{state}
//	GET      /api/barcodes
//	GET      /ws
func NewRouter(d Deps) *mux.Router {
	s := &server{
		scanner:  d.Scanner,
		state:    d.State,
		barcodes: d.Barcodes,
		logger:   d.Logger,
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	r := mux.NewRouter()
	r.Use(s.logRequests)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/action/scan", s.handleScan).Methods(http.MethodGet, http.MethodPost)
	api.HandleFunc("/state", s.handleGetState).Methods(http.MethodGet)
	api.HandleFunc("/state/{state}", s.handleSetState).Methods(http.MethodPost)
	api.HandleFunc("/barcodes", s.handleBarcodes).Methods(http.MethodGet)

	if d.Websocket != nil {
		r.Handle("/ws", d.Websocket).Methods(http.MethodGet)
	}
	return r
}

func (s *server) handleScan(w http.ResponseWriter, r *http.Request) {
	text := r.FormValue("text")
	if text == "" {
		s.writeError(w, http.StatusBadRequest, CodeMissingText, "text parameter is required", nil)
		return
	}

	out, err := s.scanner.ProcessScan(r.Context(), text)
	if err != nil {
		writeJSON(w, statusFor(out, err), Response{
			Status: "error",
			Data:   out,
			Error:  &APIError{Code: out.ErrorCode, Message: out.Message},
		})
		return
	}
	writeJSON(w, http.StatusOK, Response{Status: "ok", Data: out})
}

type stateView struct {
	State string `json:"state"`
}

func (s *server) handleGetState(w http.ResponseWriter, r *http.Request) {
	current, err := s.state.Get(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, CodeInternal, "could not read state", err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Status: "ok", Data: stateView{State: current.String()}})
}

func (s *server) handleSetState(w http.ResponseWriter, r *http.Request) {
	next, err := state.Parse(mux.Vars(r)["state"])
	if err != nil {
		s.writeError(w, http.StatusBadRequest, CodeInvalidState, err.Error(), nil)
		return
	}
	if err := s.state.Set(r.Context(), next); err != nil {
		s.writeError(w, http.StatusInternalServerError, CodeInternal, "could not set state", err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Status: "ok", Data: stateView{State: next.String()}})
}

type barcodeView struct {
	ID            int64  `json:"id"`
	Barcode       string `json:"barcode"`
	Name          string `json:"name"`
	Amount        int64  `json:"amount"`
	PossibleMatch int64  `json:"possible_match,omitempty"`
}

type barcodesView struct {
	Known   []barcodeView `json:"known"`
	Unknown []barcodeView `json:"unknown"`
}

func (s *server) handleBarcodes(w http.ResponseWriter, r *http.Request) {
	known, unknown, err := s.barcodes.ListBarcodes(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, CodeInternal, "could not list barcodes", err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Status: "ok", Data: barcodesView{
		Known:   toViews(known),
		Unknown: toViews(unknown),
	}})
}

func toViews(rows []store.CachedBarcode) []barcodeView {
	views := make([]barcodeView, 0, len(rows))
	for _, b := range rows {
		views = append(views, barcodeView{
			ID:            b.ID,
			Barcode:       b.Barcode,
			Name:          b.Name,
			Amount:        b.Amount,
			PossibleMatch: b.MatchID(),
		})
	}
	return views
}

// statusFor maps a failed scan to an HTTP status.
func statusFor(out scan.Outcome, err error) int {
	switch {
	case errors.Is(err, scan.ErrEmptyBarcode), out.ErrorCode == scan.ErrCodeValidation:
		return http.StatusBadRequest
	case out.ErrorCode == scan.ErrCodeStorage:
		return http.StatusInternalServerError
	case catalog.IsTimeout(err):
		return http.StatusGatewayTimeout
	case catalog.IsRejected(err), catalog.IsNotFound(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}

func (s *server) writeError(w http.ResponseWriter, status int, code, message string, cause error) {
	if cause != nil {
		s.logger.Error(message, "error", cause)
	}
	writeJSON(w, status, Response{Status: "error", Error: &APIError{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, body Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// logRequests logs each API request. The websocket route is logged by the hub.
func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ws" {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}
