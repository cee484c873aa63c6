package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"foodie/internal/domain"
	"foodie/internal/domain/failure"
	"foodie/internal/domain/model"
)

type captureJobResponse struct {
	ID            string     `json:"id"`
	Status        string     `json:"status"`
	CapturedAt    time.Time  `json:"captured_at"`
	Attempts      int        `json:"attempts"`
	NextAttemptAt *time.Time `json:"next_attempt_at,omitempty"`
	LastErrorKind string     `json:"last_error_kind,omitempty"`
	LastError     string     `json:"last_error,omitempty"`
	RecordID      string     `json:"record_id,omitempty"`
}

func toJobResponse(job *model.CaptureJob) captureJobResponse {
	resp := captureJobResponse{
		ID:            job.ID,
		Status:        string(job.Status),
		CapturedAt:    job.CapturedAt,
		Attempts:      job.Attempts,
		LastErrorKind: job.LastErrorKind,
		LastError:     job.LastError,
		RecordID:      job.RecordID,
	}
	if job.Status == model.CaptureJobStatusPending {
		t := job.NextAttemptAt
		resp.NextAttemptAt = &t
	}
	return resp
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.sessions == nil {
		http.Error(w, "Sessions not configured", http.StatusNotImplemented)
		return
	}
	var req struct {
		APIKey string `json:"api_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.APIKey == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if s.apiKey == "" || req.APIKey != s.apiKey {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	if _, err := s.sessions.Mint(w); err != nil {
		s.log.Error().Err(err).Msg("failed to mint session")
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCaptureUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		http.Error(w, "Invalid multipart body", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		http.Error(w, "Missing photo field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	photo, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "Failed to read photo", http.StatusBadRequest)
		return
	}

	mime := header.Header.Get("Content-Type")
	if mime == "" {
		mime = "image/jpeg"
	}

	var capturedAt time.Time
	if v := r.FormValue("captured_at"); v != "" {
		capturedAt, err = time.Parse(time.RFC3339, v)
		if err != nil {
			http.Error(w, "Invalid captured_at, want RFC3339", http.StatusBadRequest)
			return
		}
	}

	job, err := s.captureUC.Enqueue(r.Context(), photo, mime, capturedAt)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, toJobResponse(job))
}

func (s *Server) handleCaptureGet(w http.ResponseWriter, r *http.Request) {
	job, err := s.captureUC.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toJobResponse(job))
}

func (s *Server) handleCaptureRetry(w http.ResponseWriter, r *http.Request) {
	job, err := s.captureUC.RetryExhausted(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, toJobResponse(job))
}

func (s *Server) handleMealsList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	from := time.Time{}
	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			http.Error(w, "Invalid from, want RFC3339", http.StatusBadRequest)
			return
		}
		from = t
	}
	to := time.Time{}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			http.Error(w, "Invalid to, want RFC3339", http.StatusBadRequest)
			return
		}
		to = t
	}
	limit := 0
	if v := q.Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}

	records, err := s.mealUC.List(r.Context(), from, to, limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if records == nil {
		records = []*model.MealRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleMealGet(w http.ResponseWriter, r *http.Request) {
	rec, err := s.mealUC.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

type mealUpdateRequest struct {
	Calories    int       `json:"calories"`
	Description string    `json:"description"`
	EatenAt     time.Time `json:"eaten_at"`
}

func (s *Server) handleMealUpdate(w http.ResponseWriter, r *http.Request) {
	var req mealUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	rec, err := s.mealUC.Update(r.Context(), chi.URLParam(r, "id"), req.Calories, req.Description, req.EatenAt)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleMealDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.mealUC.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var validation *failure.ValidationError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrInvalidArgument):
		http.Error(w, "Invalid argument", http.StatusBadRequest)
	case errors.As(err, &validation):
		http.Error(w, validation.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrRateLimited):
		http.Error(w, "Too many captures, slow down", http.StatusTooManyRequests)
	case errors.Is(err, domain.ErrJobNotRetryable):
		http.Error(w, "Job is not awaiting manual retry", http.StatusConflict)
	case errors.Is(err, domain.ErrArtifactMissing):
		http.Error(w, "Photo no longer available", http.StatusGone)
	default:
		s.log.Error().Err(err).Msg("request failed")
		http.Error(w, "Internal error", http.StatusInternalServerError)
	}
}
