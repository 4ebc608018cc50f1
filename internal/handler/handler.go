package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"

	"abaya-store/internal/middleware"
	"abaya-store/internal/model"
	"abaya-store/internal/storage"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

const (
	maxJSONBody        = 1 << 20
	maxMultipartMemory = 32 << 20

	msgInvalidBody = "Invalid request body"
	msgServerError = "Server error. Please try again later."
)

// writeJSON writes a JSON response with the given status code. The status is
// committed before encoding, so an encode failure leaves a truncated body.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string, logger zerolog.Logger) {
	logger.Warn().Str("error", message).Int("status", status).Msg("handler error")
	writeJSON(w, status, model.ErrorResponse{Error: message})
}

// writeServiceError maps a service error onto a response. Domain errors keep their
// message; anything else is logged and reported with fallback.
func writeServiceError(w http.ResponseWriter, err error, fallback string, logger zerolog.Logger) {
	var domainErr *model.DomainError
	if !errors.As(err, &domainErr) {
		logger.Error().Err(err).Msg(fallback)
		writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{Error: fallback, Code: model.ErrCodeInternalError})
		return
	}

	status := statusFor(domainErr.Code)
	logger.Debug().Str("code", domainErr.Code).Str("error", domainErr.Message).Int("status", status).Msg("request rejected")
	writeJSON(w, status, model.ErrorResponse{Error: domainErr.Message, Code: domainErr.Code})
}

func statusFor(code string) int {
	switch code {
	case model.ErrCodeValidation, model.ErrCodeInsufficientStock, model.ErrCodeInvalidTransition:
		return http.StatusBadRequest
	case model.ErrCodeUnauthorised:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodeNotFound:
		return http.StatusNotFound
	case model.ErrCodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON decodes the request body into dst. An empty body is an error unless
// allowEmpty is set.
func decodeJSON(r *http.Request, dst interface{}, allowEmpty bool) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody)).Decode(dst)
	if errors.Is(err, io.EOF) && allowEmpty {
		return nil
	}
	return err
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

// readUpload reads one multipart file. Oversized files are truncated just past the
// limit so storage.Validate rejects them.
func readUpload(fh *multipart.FileHeader) (*model.ImageUpload, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, storage.MaxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	return &model.ImageUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// formFile returns the first file under key, or nil.
func formFile(form *multipart.Form, key string) *multipart.FileHeader {
	if form == nil || len(form.File[key]) == 0 {
		return nil
	}
	return form.File[key][0]
}

// formValue returns the first value under key, or nil when the field is absent.
func formValue(form *multipart.Form, key string) *string {
	if form == nil || len(form.Value[key]) == 0 {
		return nil
	}
	v := form.Value[key][0]
	return &v
}

// resourceID reads the id path variable, falling back to the ?id= query parameter.
func resourceID(r *http.Request) (uuid.UUID, bool, error) {
	raw := mux.Vars(r)["id"]
	if raw == "" {
		raw = r.URL.Query().Get("id")
	}
	if raw == "" {
		return uuid.Nil, false, nil
	}
	id, err := uuid.Parse(raw)
	return id, true, err
}

func principal(r *http.Request) *model.Principal {
	return middleware.PrincipalFrom(r.Context())
}

// cartOwner addresses the caller's cart: the signed-in user, else the presented cart token.
func cartOwner(r *http.Request) model.CartOwner {
	if p := principal(r); p != nil {
		id := p.UserID
		return model.CartOwner{UserID: &id}
	}
	return model.CartOwner{GuestToken: r.Header.Get(middleware.CartTokenHeader)}
}
