package server

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/joseph-ayodele/voice-studio/internal/common"
	"github.com/joseph-ayodele/voice-studio/internal/voices"
)

type processProfileResponse struct {
	Success bool `json:"success"`
	*voices.CreateJobResult
	Message string `json:"message"`
}

func (s *Server) handleProcessProfile(w http.ResponseWriter, r *http.Request) {
	var req voices.ProcessProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	userID := common.UserIDFromContext(r.Context())
	res, err := s.voices.CreateJob(r.Context(), userID, req)
	if err != nil {
		if common.HTTPStatus(err) >= 500 {
			s.logger.Error("http.process_profile.failed", "user_id", userID, "error", err)
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, processProfileResponse{
		Success:         true,
		CreateJobResult: res,
		Message: fmt.Sprintf("Voice creation started. Processing %d videos, estimated time %s.",
			res.VideoCount, res.EstimatedProcessingTime),
	})
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.voices.GetJob(r.Context(), common.UserIDFromContext(r.Context()), mux.Vars(r)["jobId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleGetVoice(w http.ResponseWriter, r *http.Request) {
	voice, err := s.voices.GetVoice(r.Context(), common.UserIDFromContext(r.Context()), mux.Vars(r)["voiceId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, voice)
}

func (s *Server) handleExportVoice(w http.ResponseWriter, r *http.Request) {
	voiceID := mux.Vars(r)["voiceId"]
	data, err := s.export.ExportVoiceXLSX(r.Context(), common.UserIDFromContext(r.Context()), voiceID)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="voice-%s.xlsx"`, voiceID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleTranscriptionEvent(w http.ResponseWriter, r *http.Request) {
	got := r.Header.Get("X-Webhook-Secret")
	if s.webhookSecret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(s.webhookSecret)) != 1 {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "Authentication failed"})
		return
	}
	var ev voices.TranscriptionEvent
	if err := decodeJSON(w, r, &ev); err != nil {
		writeError(w, err)
		return
	}
	video, err := s.voices.RecordTranscription(r.Context(), ev)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "videoId": video.ID})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		s.logger.Error("http.health.failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
