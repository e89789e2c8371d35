// Package server exposes the review pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/dshills/designcritic/internal/critique"
	"github.com/dshills/designcritic/internal/llm"
	"github.com/dshills/designcritic/internal/pipeline"
	"github.com/dshills/designcritic/internal/schema"
)

// DefaultMaxUpload is the largest accepted design file.
const DefaultMaxUpload = 8 << 20

// formOverhead is allowed on top of the file size for the other form parts.
const formOverhead = 1 << 20

// Reviewer runs a single review. *pipeline.Reviewer satisfies it.
type Reviewer interface {
	Review(ctx context.Context, req critique.Request) (*pipeline.Outcome, error)
}

// Server is the HTTP front end for a Reviewer.
type Server struct {
	reviewer   Reviewer
	maxUpload  int64
	log        *zap.Logger
	httpServer *http.Server
}

// New creates a server listening on addr. maxUpload <= 0 means DefaultMaxUpload.
func New(reviewer Reviewer, addr string, maxUpload int64, log *zap.Logger) *Server {
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUpload
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{reviewer: reviewer, maxUpload: maxUpload, log: log}

	mux := http.NewServeMux()
	mux.HandleFunc("/review", s.handleReview)
	mux.HandleFunc("/healthz", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.logRequests(cors(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the server's root handler.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// Start serves until Stop is called.
func (s *Server) Start() error {
	s.log.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// Stop shuts the server down, waiting for in-flight reviews until ctx is done.
func (s *Server) Stop(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}

// Response is the body of every /review reply.
type Response struct {
	OK         bool               `json:"ok"`
	Result     *critique.Critique `json:"result,omitempty"`
	RequestID  string             `json:"request_id,omitempty"`
	Error      string             `json:"error,omitempty"`
	Kind       string             `json:"kind,omitempty"`
	Violations []schema.Violation `json:"violations,omitempty"`
}

type jsonRequest struct {
	Prompt       string `json:"prompt"`
	ArtifactName string `json:"file_name"`
	ArtifactKind string `json:"file_type"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, kind, msg string) {
	writeJSON(w, status, Response{OK: false, Error: msg, Kind: kind})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}

	req, status, err := s.decodeRequest(w, r)
	if err != nil {
		kind := string(pipeline.KindInvalidRequest)
		if status == http.StatusRequestEntityTooLarge {
			kind = "file_too_large"
		}
		writeError(w, status, kind, err.Error())
		return
	}

	out, err := s.reviewer.Review(r.Context(), req)
	if err != nil {
		pe, ok := pipeline.AsError(err)
		if !ok {
			s.log.Error("review failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal", "internal error")
			return
		}
		writeJSON(w, statusFor(pe), Response{
			OK:         false,
			Error:      pe.Message,
			Kind:       kindFor(pe),
			Violations: pe.Violations,
		})
		return
	}

	writeJSON(w, http.StatusOK, Response{OK: true, Result: &out.Critique, RequestID: out.RequestID})
}

// decodeRequest reads either a multipart form (prompt plus optional file)
// or a JSON body. Only the file's name and type are used; its content never
// reaches the model.
func (s *Server) decodeRequest(w http.ResponseWriter, r *http.Request) (critique.Request, int, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload+formOverhead)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var body jsonRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return critique.Request{}, bodyStatus(err), fmt.Errorf("invalid JSON body: %w", err)
		}
		return critique.Request{Brief: body.Prompt, ArtifactName: body.ArtifactName, ArtifactKind: body.ArtifactKind}, 0, nil
	}

	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		return critique.Request{}, bodyStatus(err), fmt.Errorf("invalid form: %w", err)
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	req := critique.Request{Brief: r.FormValue("prompt")}
	file, header, err := r.FormFile("file")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return req, 0, nil
	case err != nil:
		return critique.Request{}, http.StatusBadRequest, fmt.Errorf("invalid file: %w", err)
	}
	defer file.Close()

	if header.Size > s.maxUpload {
		return critique.Request{}, http.StatusRequestEntityTooLarge,
			fmt.Errorf("file exceeds %d bytes", s.maxUpload)
	}
	req.ArtifactName = filepath.Base(header.Filename)
	req.ArtifactKind = fileKind(header, file)
	return req, 0, nil
}

func fileKind(header *multipart.FileHeader, file multipart.File) string {
	declared := header.Header.Get("Content-Type")
	buf := make([]byte, 512)
	n, _ := io.ReadFull(file, buf)
	return critique.DetectKind(header.Filename, declared, buf[:n])
}

func bodyStatus(err error) int {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) || errors.Is(err, multipart.ErrMessageTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func statusFor(e *pipeline.Error) int {
	switch e.Kind {
	case pipeline.KindInvalidRequest:
		return http.StatusBadRequest
	case pipeline.KindNoStructuredPayload, pipeline.KindMalformedPayload, pipeline.KindSchemaViolation:
		return http.StatusUnprocessableEntity
	case pipeline.KindCancelled:
		return http.StatusServiceUnavailable
	case pipeline.KindTransport:
		switch e.Transport {
		case llm.KindRateLimited:
			return http.StatusTooManyRequests
		case llm.KindTimeout, llm.KindNetwork:
			return http.StatusServiceUnavailable
		}
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func kindFor(e *pipeline.Error) string {
	if e.Kind == pipeline.KindTransport {
		return string(e.Kind) + "." + string(e.Transport)
	}
	return string(e.Kind)
}

// cors allows any origin, answering preflight requests directly.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)))
	})
}
