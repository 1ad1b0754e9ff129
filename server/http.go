package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/advergate/advergate/advertiser"
	"github.com/advergate/advergate/config"
	"github.com/advergate/advergate/dialogflow"
	"github.com/advergate/advergate/messages"
	"github.com/advergate/advergate/prompt"
	"github.com/advergate/advergate/storage"
)

// PromptResolver answers prompt lookups and forced regenerations.
type PromptResolver interface {
	Resolve(ctx context.Context, advertiserID string) (prompt.Entry, error)
	ForceRefresh(ctx context.Context, advertiserID string) (prompt.Entry, error)
}

// IntentDetector forwards one chat turn to the NLU agent.
type IntentDetector interface {
	Detect(ctx context.Context, params dialogflow.DetectParams) (string, error)
}

// FileUploader writes advertiser files to blob storage.
type FileUploader interface {
	Upload(ctx context.Context, advertiserName string, files []storage.File) (string, []storage.UploadedFile, error)
}

type Server struct {
	httpServer *http.Server
	config     *config.Config
	resolver   PromptResolver
	detector   IntentDetector
	uploader   FileUploader
	log        *log.Logger
}

func NewServer(cfg *config.Config, resolver PromptResolver, detector IntentDetector, uploader FileUploader, logger *log.Logger) *Server {
	s := &Server{
		config:   cfg,
		resolver: resolver,
		detector: detector,
		uploader: uploader,
		log:      logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("POST /update-prompt", s.handleUpdatePrompt)
	mux.HandleFunc("POST /upload", s.handleUpload)
	mux.HandleFunc("GET /health", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withCORS(s.withRequestLog(mux)),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	return s
}

// Handler exposes the full middleware-wrapped handler for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins listening for connections
func (s *Server) Start() error {
	s.log.Info("gateway listening", "port", s.config.Port)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req messages.ChatRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, messages.ErrCodeBadRequest, "invalid request body")
		return
	}
	if req.Message == "" {
		s.writeError(w, http.StatusBadRequest, messages.ErrCodeBadRequest, "missing required field: message")
		return
	}
	if req.AdvertiserID == "" {
		s.writeError(w, http.StatusBadRequest, messages.ErrCodeBadRequest, "missing required field: advertiserId")
		return
	}

	entry, err := s.resolver.Resolve(r.Context(), req.AdvertiserID)
	if err != nil {
		s.log.Error("prompt resolution failed", "request_id", requestID(r.Context()), "advertiser_id", req.AdvertiserID, "error", err)
		s.writeError(w, http.StatusInternalServerError, messages.ErrCodeConfigUnavailable, "failed to load advertiser configuration")
		return
	}

	reply, err := s.detector.Detect(r.Context(), dialogflow.DetectParams{
		AdvertiserName: req.AdvertiserName,
		SessionID:      req.SessionID,
		Message:        req.Message,
		Prompt:         entry.Prompt,
		MissingFields:  entry.MissingFields,
	})
	if err != nil {
		s.log.Error("intent detection failed", "request_id", requestID(r.Context()), "advertiser_id", req.AdvertiserID, "error", err)
		code := messages.ErrCodeUpstreamNLUError
		if errors.Is(err, dialogflow.ErrCredential) {
			code = messages.ErrCodeCredentialError
		}
		s.writeError(w, http.StatusInternalServerError, code, "failed to contact agent")
		return
	}

	s.writeJSON(w, http.StatusOK, messages.ChatResponse{Response: reply})
}

func (s *Server) handleUpdatePrompt(w http.ResponseWriter, r *http.Request) {
	var req messages.UpdatePromptRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, messages.ErrCodeBadRequest, "invalid request body")
		return
	}
	if req.AdvertiserID == "" {
		s.writeError(w, http.StatusBadRequest, messages.ErrCodeBadRequest, "missing required field: advertiserId")
		return
	}

	entry, err := s.resolver.ForceRefresh(r.Context(), req.AdvertiserID)
	if err != nil {
		if errors.Is(err, advertiser.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, messages.ErrCodeAdvertiserNotFound, "advertiser not found")
			return
		}
		s.log.Error("prompt refresh failed", "request_id", requestID(r.Context()), "advertiser_id", req.AdvertiserID, "error", err)
		s.writeError(w, http.StatusInternalServerError, messages.ErrCodeConfigUnavailable, "failed to regenerate prompt")
		return
	}

	s.writeJSON(w, http.StatusOK, messages.UpdatePromptResponse{
		Prompt:        entry.Prompt,
		MissingFields: entry.MissingFields,
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(s.config.MaxUploadSize); err != nil {
		s.writeError(w, http.StatusBadRequest, messages.ErrCodeBadRequest, "invalid multipart form")
		return
	}

	advertiserName := r.FormValue("advertiserName")
	if advertiserName == "" {
		s.writeError(w, http.StatusBadRequest, messages.ErrCodeBadRequest, "missing required field: advertiserName")
		return
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		s.writeError(w, http.StatusBadRequest, messages.ErrCodeBadRequest, "no files uploaded")
		return
	}

	files := make([]storage.File, 0, len(headers))
	for _, header := range headers {
		f, err := header.Open()
		if err != nil {
			s.writeError(w, http.StatusBadRequest, messages.ErrCodeBadRequest, "unreadable file: "+header.Filename)
			return
		}
		defer f.Close()
		files = append(files, storage.File{
			Name:        header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Reader:      f,
		})
	}

	bucket, uploaded, err := s.uploader.Upload(r.Context(), advertiserName, files)
	if err != nil {
		s.log.Error("upload failed", "request_id", requestID(r.Context()), "advertiser_name", advertiserName, "error", err)
		s.writeError(w, http.StatusInternalServerError, messages.ErrCodeStorageError, "upload failed")
		return
	}

	s.writeJSON(w, http.StatusOK, messages.UploadResponse{
		Message: fmt.Sprintf("Uploaded %d file(s) to bucket %q", len(uploaded), bucket),
		Files:   uploaded,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, messages.HealthResponse{Status: "ok"})
}

func decodeJSON(r *http.Request, v any) error {
	return sonic.ConfigDefault.NewDecoder(r.Body).Decode(v)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := sonic.ConfigDefault.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("failed to write response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, message string) {
	s.writeJSON(w, status, messages.NewErrorResponse(code, message))
}

// withCORS applies the configured origin allowlist to every response and
// short-circuits preflight requests.
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		for _, allowed := range s.config.AllowedOrigins {
			if allowed == "*" || allowed == origin {
				w.Header().Set("Access-Control-Allow-Origin", allowed)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
				break
			}
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type requestIDKey struct{}

// requestID returns the identifier assigned by withRequestLog, so error
// logs from handlers correlate with the request line.
func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := uuid.New().String()
		r = r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id))
		next.ServeHTTP(w, r)
		s.log.Info("request handled",
			"request_id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	})
}
