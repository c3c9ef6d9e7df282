package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/BetterCallFirewall/Sentinel/internal/analysis"
	"github.com/BetterCallFirewall/Sentinel/internal/app"
	log "github.com/sirupsen/logrus"
)

type errorResponse struct {
	Error string        `json:"error"`
	State *app.Snapshot `json:"state,omitempty"`
}

type settingsResponse struct {
	SystemPrompt        string `json:"systemPrompt"`
	DefaultSystemPrompt string `json:"defaultSystemPrompt"`
	HasAPIKey           bool   `json:"hasApiKey"`
	MaskedAPIKey        string `json:"maskedApiKey,omitempty"`
	APIKeyValid         *bool  `json:"apiKeyValid,omitempty"`
}

type settingsRequest struct {
	SystemPrompt *string `json:"systemPrompt"`
	APIKey       *string `json:"apiKey"`
}

type chatRequest struct {
	Question string `json:"question"`
}

type chatResponse struct {
	Answer string `json:"answer"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warnf("⚠️ Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.controller.Snapshot())
}

// submitStatus maps a Submit error to its HTTP status
func submitStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusAccepted
	case errors.Is(err, analysis.ErrAnalysisInProgress):
		return http.StatusConflict
	default:
		return http.StatusUnprocessableEntity
	}
}

func (s *Server) handleSubmitAPI(w http.ResponseWriter, r *http.Request) {
	req, err := s.submitRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	err = s.controller.Submit(r.Context(), req)
	snap := s.controller.Snapshot()
	if err != nil {
		writeJSON(w, submitStatus(err), errorResponse{Error: analysis.UserMessage(err), State: &snap})
		return
	}
	if len(req.Files) == 0 && req.Fetch == nil {
		writeJSON(w, http.StatusOK, snap)
		return
	}
	writeJSON(w, http.StatusAccepted, snap)
}

func (s *Server) handleResetAPI(w http.ResponseWriter, r *http.Request) {
	s.controller.Reset()
	writeJSON(w, http.StatusOK, s.controller.Snapshot())
}

func (s *Server) handleGetReports(w http.ResponseWriter, r *http.Request) {
	limit := listLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	reports, err := s.controller.Reports(limit)
	if err != nil {
		log.Errorf("❌ Failed listing reports: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list reports")
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.controller.Report(r.PathValue("id"))
	if errors.Is(err, app.ErrNotFound) {
		writeError(w, http.StatusNotFound, "report not found")
		return
	}
	if err != nil {
		log.Errorf("❌ Failed loading report: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load report")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) settingsResponse() settingsResponse {
	snap := s.controller.Snapshot()
	return settingsResponse{
		SystemPrompt:        snap.SystemPrompt,
		DefaultSystemPrompt: s.controller.DefaultSystemPrompt(),
		HasAPIKey:           snap.HasAPIKey,
		MaskedAPIKey:        snap.MaskedAPIKey,
	}
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.settingsResponse())
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	if req.SystemPrompt != nil {
		if err := s.controller.SaveSystemPrompt(*req.SystemPrompt); err != nil {
			if errors.Is(err, app.ErrEmptyPrompt) {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			log.Errorf("❌ Failed saving system prompt: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to save system prompt")
			return
		}
	}

	var valid *bool
	if req.APIKey != nil {
		ok, err := s.controller.SaveAPIKey(r.Context(), *req.APIKey)
		if err != nil {
			if errors.Is(err, app.ErrEmptyAPIKey) {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			log.Errorf("❌ Failed saving api key: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to save api key")
			return
		}
		valid = &ok
	}

	resp := s.settingsResponse()
	resp.APIKeyValid = valid
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleValidateKey(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"valid": s.controller.ValidateStoredKey(r.Context())})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "question is empty")
		return
	}

	answer, err := s.controller.Chat(r.Context(), req.Question)
	if err != nil {
		log.Warnf("⚠️ Chat failed: %v", err)
		status := http.StatusBadGateway
		if errors.Is(err, analysis.ErrMissingAPIKey) {
			status = http.StatusUnprocessableEntity
		}
		writeError(w, status, analysis.UserMessage(err))
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Answer: answer})
}
