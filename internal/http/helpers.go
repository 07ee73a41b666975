package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"fiado/internal/session"
)

const maxBodyBytes = 1 << 20 // 1 MiB for JSON bodies

func withSession(ctx context.Context, sess session.Session) context.Context {
	return session.NewContext(ctx, sess)
}

func sessionFrom(ctx context.Context) (session.Session, error) {
	return session.FromContext(ctx)
}

// authenticate extracts and validates the bearer token.
func (s *Server) authenticate(r *http.Request) (session.Session, error) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return session.Session{}, session.ErrInvalidToken
	}
	return session.Parse(s.secret, token)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}
