package http

import (
	"encoding/json"
	"net/http"

	apperrors "roomly/pkg/errors"
	"roomly/pkg/model"
)

type ErrorResponse struct {
	Error   string         `json:"error"`
	Code    string         `json:"code,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

type SuccessResponse struct {
	Data any `json:"data,omitempty"`
}

type ListResponse struct {
	Data       any `json:"data"`
	TotalCount int `json:"total_count"`
}

// ConflictResponse is the body of a rejected reservation. It is a normal
// outcome, so it carries the offending booking instead of an error code.
type ConflictResponse struct {
	Outcome  model.Outcome   `json:"outcome"`
	Error    string          `json:"error"`
	Conflict *model.Conflict `json:"conflict,omitempty"`
}

const ConflictMessage = "This room is already booked during the selected time"

func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

func WriteError(w http.ResponseWriter, err error) error {
	appErr := apperrors.AsAppError(err)
	message := appErr.Message
	if appErr.Code == apperrors.CodeInternal {
		message = "Internal server error"
	}
	return WriteJSON(w, appErr.StatusCode(), ErrorResponse{
		Error:   message,
		Code:    appErr.Code,
		Details: appErr.Details,
	})
}

func WriteConflict(w http.ResponseWriter, conflict *model.Conflict) error {
	return WriteJSON(w, http.StatusConflict, ConflictResponse{
		Outcome:  model.OutcomeConflict,
		Error:    ConflictMessage,
		Conflict: conflict,
	})
}

func WriteSuccess(w http.ResponseWriter, data any) error {
	return WriteJSON(w, http.StatusOK, SuccessResponse{Data: data})
}

func WriteCreated(w http.ResponseWriter, data any) error {
	return WriteJSON(w, http.StatusCreated, SuccessResponse{Data: data})
}

func WriteList(w http.ResponseWriter, data any, total int) error {
	return WriteJSON(w, http.StatusOK, ListResponse{Data: data, TotalCount: total})
}

func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
