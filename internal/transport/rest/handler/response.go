package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"survai/internal/jobs"
	"survai/internal/logger"
	"survai/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeServiceError maps service and job errors onto HTTP statuses
func writeServiceError(w http.ResponseWriter, log *logger.Logger, err error) {
	var (
		ierr *service.InputError
		derr *service.DataError
	)
	switch {
	case errors.As(err, &ierr):
		writeError(w, http.StatusBadRequest, ierr.Message)
	case errors.Is(err, service.ErrSurveyNotFound),
		errors.Is(err, service.ErrQuestionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, jobs.ErrJobInProgress):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &derr):
		writeError(w, http.StatusUnprocessableEntity, derr.Error())
	case errors.Is(err, jobs.ErrQueueFull), errors.Is(err, jobs.ErrRunnerStopped):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		log.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
