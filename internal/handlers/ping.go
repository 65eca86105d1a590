package handlers

import (
	"fmt"
	"net/http"

	"github.com/senyabanana/rfq-service/internal/utils"

	"go.uber.org/zap"
)

// PingHandler обрабатывает GET запрос к /api/ping
func PingHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid method, only GET is allowed")
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	if _, err := fmt.Fprint(w, "ok"); err != nil {
		zap.L().Warn("failed to write ping response", zap.Error(err))
	}
}
