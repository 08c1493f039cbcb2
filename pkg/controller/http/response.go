package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/wrongbook/pkg/domain/model"
	"github.com/secmon-lab/wrongbook/pkg/usecase"
	"github.com/secmon-lab/wrongbook/pkg/utils/errutil"
	"github.com/secmon-lab/wrongbook/pkg/utils/safe"
)

var errBadRequest = errors.New("bad request")

// statusOf maps domain errors to HTTP status codes
func statusOf(err error) int {
	var maxBytes *http.MaxBytesError

	switch {
	case errors.Is(err, model.ErrDuplicateKey):
		return http.StatusConflict
	case errors.Is(err, model.ErrImageTooLargeForFallback), errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, model.ErrInvalidMistake), errors.Is(err, errBadRequest), errors.Is(err, usecase.ErrClearNotSupported):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrEmptyInferenceResponse), errors.Is(err, model.ErrImageDownloadFailed):
		return http.StatusBadGateway
	case errors.Is(err, usecase.ErrInvalidToken), errors.Is(err, errAuthenticationRequired):
		return http.StatusUnauthorized
	case errors.Is(err, usecase.ErrRemoteNotConfigured), errors.Is(err, usecase.ErrTutorNotConfigured):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func handleError(w http.ResponseWriter, r *http.Request, err error) {
	errutil.HandleHTTP(r.Context(), w, err, statusOf(err))
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	safe.Write(r.Context(), w, data)
}

func decodeJSON(r *http.Request, v any) error {
	return decode(r, v, false)
}

// decodeOptionalJSON accepts an empty body and leaves v untouched
func decodeOptionalJSON(r *http.Request, v any) error {
	return decode(r, v, true)
}

func decode(r *http.Request, v any, optional bool) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return nil
		}
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return goerr.Wrap(err, "request body too large", goerr.V("limit", maxBytes.Limit))
		}
		return goerr.Wrap(errors.Join(errBadRequest, err), "invalid JSON body")
	}
	return nil
}
