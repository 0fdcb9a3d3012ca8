package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/sandevgo/membot/pkg/log"
)

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Answer string `json:"answer"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	logger := log.FromCtx(r.Context())

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	question := strings.TrimSpace(req.Question)
	if question == "" {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "missing 'question' field"})
		return
	}

	name, ok := s.resolver.Resolve(r.Context(), question, s.dir.UserNames())
	if !ok {
		respondJSON(w, http.StatusBadRequest, errorResponse{
			Error: "couldn't determine which member the question refers to",
		})
		return
	}

	userID, ok := s.dir.UserID(name)
	if !ok {
		// The resolver vets names against the directory, but the two
		// reads are separate snapshots; treat a miss as unresolved.
		respondJSON(w, http.StatusBadRequest, errorResponse{
			Error: "couldn't determine which member the question refers to",
		})
		return
	}

	answerText, err := s.composer.Answer(r.Context(), question, userID, name)
	if err != nil {
		logger.Error().Err(err).Str("member", name).Msg("answer composition failed")
		respondJSON(w, http.StatusInternalServerError, errorResponse{
			Error: fmt.Sprintf("failed to generate answer: %v", err),
		})
		return
	}

	respondJSON(w, http.StatusOK, askResponse{Answer: answerText})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	users, known := s.dir.Counts()
	respondJSON(w, http.StatusOK, map[string]any{
		"members":        users,
		"known_messages": known,
		"index_backend":  s.backend,
	})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
