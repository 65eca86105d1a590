package utils

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/senyabanana/rfq-service/internal/models"

	"go.uber.org/zap"
)

// SendErrorResponse отправляет ошибку в формате JSON
func SendErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	SendError(w, models.NewErrorResponse(statusCode, message))
}

// SendError отправляет ошибку предметной области с видом, полем и деталями.
// Посторонние ошибки превращаются во внутреннюю ошибку без раскрытия текста.
func SendError(w http.ResponseWriter, err error) {
	var errorResponse *models.ErrorResponse
	if !errors.As(err, &errorResponse) {
		errorResponse = models.NewKindError(models.InternalError, "internal server error")
	}
	SendJSON(w, errorResponse.StatusCode, errorResponse)
}

// SendJSON отправляет тело ответа в формате JSON
func SendJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

// AccessToken извлекает токен поставщика из заголовка Authorization или параметра token
func AccessToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, found := strings.Cut(header, " ")
		if found && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.URL.Query().Get("token")
}

// DecodeJSON читает тело запроса; пустое тело допустимо, если allowEmpty.
func DecodeJSON(r *http.Request, dst any, allowEmpty bool) error {
	if r.Body == nil || r.Body == http.NoBody {
		if allowEmpty {
			return nil
		}
		return models.NewValidationError("body", "request body is required")
	}
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return nil
		}
		return models.NewValidationError("body", "invalid request body")
	}
	return nil
}
