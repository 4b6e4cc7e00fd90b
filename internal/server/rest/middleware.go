package rest

import (
	"context"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/filemill/internal/common"
	"github.com/dmitrijs2005/filemill/internal/server/auth"
	"github.com/dmitrijs2005/filemill/internal/session"
)

type contextKey string

const (
	gateKey      contextKey = "gate"
	sessionIDKey contextKey = "sessionID"
)

// withSession resolves the bearer token into the caller's session gate
// and stores it on the request context. Requests without a valid token
// are rejected before reaching the handler.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		tokenString, found := strings.CutPrefix(header, "Bearer ")
		if !found || tokenString == "" {
			writeError(w, common.ErrNotLoggedIn)
			return
		}

		sessionID, err := auth.GetSessionIDFromToken(tokenString, []byte(s.secretKey))
		if err != nil {
			writeError(w, common.ErrInvalidToken)
			return
		}

		gate, ok := s.sessions.Get(sessionID)
		if !ok {
			writeError(w, common.ErrNotLoggedIn)
			return
		}

		ctx := context.WithValue(r.Context(), gateKey, gate)
		ctx = context.WithValue(ctx, sessionIDKey, sessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func gateFrom(r *http.Request) *session.Gate {
	gate, _ := r.Context().Value(gateKey).(*session.Gate)
	return gate
}

func sessionIDFrom(r *http.Request) string {
	id, _ := r.Context().Value(sessionIDKey).(string)
	return id
}
