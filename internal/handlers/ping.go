package handlers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/senyabanana/proposal-service/internal/utils"
)

// Pinger - хранилище, доступность которого проверяет /api/ping.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingHandler обрабатывает GET запрос к /api/ping: "ok", если хранилище отвечает.
func PingHandler(store Pinger, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			utils.SendErrorResponse(w, http.StatusBadRequest, "invalid method, only GET is allowed")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			log.Printf("ping: store unavailable: %v", err)
			utils.SendErrorResponse(w, http.StatusServiceUnavailable, "store unavailable")
			return
		}

		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		if _, err := fmt.Fprint(w, "ok"); err != nil {
			log.Println(err)
		}
	}
}
