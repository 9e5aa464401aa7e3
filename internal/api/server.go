package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/frey-perez/encoding-prompter/internal/encoder"
	"github.com/frey-perez/encoding-prompter/internal/results"
)

type Server struct {
	router  *chi.Mux
	encoder *encoder.Encoder
	logger  *slog.Logger
	port    int
}

// EncodeRequest is the payload for POST /v1/encode.
type EncodeRequest struct {
	DocID string `json:"doc_id"`
	Text  string `json:"text"`
}

// EncodeResponse carries the extracted instances for one transcript.
type EncodeResponse struct {
	RequestID string        `json:"request_id"`
	Rows      []results.Row `json:"rows"`
	Count     int           `json:"count"`
}

func NewServer(port int, enc *encoder.Encoder, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:  router,
		encoder: enc,
		logger:  logger,
		port:    port,
	}

	router.Get("/health", s.health)
	router.Post("/v1/encode", s.encode)

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("API server starting", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) encode(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()

	var req EncodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf(`{"error":"invalid JSON: %v"}`, err), http.StatusBadRequest)
		return
	}
	if req.Text == "" {
		http.Error(w, `{"error":"text is required"}`, http.StatusBadRequest)
		return
	}

	table, err := s.encoder.EncodeText(r.Context(), req.Text, req.DocID)
	if err != nil {
		s.logger.Error("encode request failed", "request_id", requestID, "error", err)
		http.Error(w, `{"error":"encoding failed"}`, http.StatusBadGateway)
		return
	}

	rows := table.Rows
	if rows == nil {
		rows = []results.Row{}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(EncodeResponse{
		RequestID: requestID,
		Rows:      rows,
		Count:     len(rows),
	})
}
