package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"roomly/pkg/config"
	apperrors "roomly/pkg/errors"
)

// ExtractLimitOffset reads ?limit and ?offset for the room and user lists.
// Missing or out of range values are clamped rather than rejected; only
// values that are not numbers are an error.
func ExtractLimitOffset(r *http.Request) (int, int64, error) {
	query := r.URL.Query()

	var limit int
	if raw := query.Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid limit parameter: " + raw)
		}
		limit = v
	}

	var offset int64
	if raw := query.Get("offset"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid offset parameter: " + raw)
		}
		offset = v
	}

	return config.NormalizePaginationLimit(limit), config.NormalizeOffset(offset), nil
}

// DecodeBody reads exactly one JSON object into dst. Unknown fields and
// trailing data are rejected so a typo such as "start" for "start_time"
// cannot silently book the wrong slot.
func DecodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return apperrors.InvalidInput("Request body is empty")
		case errors.As(err, &maxErr):
			return apperrors.PayloadTooLarge(maxErr.Limit)
		default:
			return apperrors.InvalidInput("Invalid request body")
		}
	}
	if dec.More() {
		return apperrors.InvalidInput("Request body must contain a single JSON object")
	}
	return nil
}
