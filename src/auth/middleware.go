package auth

import (
	"net/http"
	"strconv"
	"strings"
)

// Middleware resolves the actor from headers set by the upstream gateway,
// which owns authentication and role lookup. Requests without an actor are
// rejected before reaching any handler.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := strconv.ParseUint(r.Header.Get("X-User-ID"), 10, 64)
		if err != nil || userID == 0 {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		var houseID uint64
		if v := r.Header.Get("X-Exchange-House-ID"); v != "" {
			houseID, err = strconv.ParseUint(v, 10, 64)
			if err != nil {
				http.Error(w, "invalid exchange house header", http.StatusBadRequest)
				return
			}
		}

		var capabilities []string
		if v := r.Header.Get("X-Capabilities"); v != "" {
			for _, c := range strings.Split(v, ",") {
				if c = strings.TrimSpace(c); c != "" {
					capabilities = append(capabilities, c)
				}
			}
		}

		actor := &Actor{
			UserID:          uint(userID),
			ExchangeHouseID: uint(houseID),
			Capabilities:    capabilities,
		}
		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	})
}
