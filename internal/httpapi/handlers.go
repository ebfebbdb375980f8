package httpapi

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/DoyleJ11/domain-race-backend/internal/hub"
	wire "github.com/DoyleJ11/domain-race-backend/pkg/types"
)

// GenerateRoom hands out a code not used by any live room. The room itself is
// created when the first player connects to it.
func GenerateRoom(h *hub.Hub, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code, err := h.GenerateRoomCode()
		if err != nil {
			logger.Error("failed to generate room code", zap.Error(err))
			http.Error(w, "failed to generate code", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, wire.RoomCode{RoomCode: code})
	}
}

func Stats(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, h.Stats())
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
