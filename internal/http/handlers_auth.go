package http

import (
	"errors"
	"net/http"
	"strings"

	"fiado/internal/session"
	"fiado/internal/storage"
)

type registerRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	StoreName string `json:"storeName"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Token     string `json:"token"`
	StoreID   string `json:"storeId"`
	StoreName string `json:"storeName"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.StoreName = strings.TrimSpace(req.StoreName)
	if req.Username == "" || len(req.Password) < 6 || req.StoreName == "" {
		writeError(w, http.StatusUnprocessableEntity, "username, storeName and a password of at least 6 characters are required")
		return
	}

	u, err := s.repo.CreateUser(r.Context(), req.Username, req.Password, req.StoreName, s.ledger.Now())
	if errors.Is(err, storage.ErrUsernameTaken) {
		writeError(w, http.StatusConflict, "username already taken")
		return
	}
	if err != nil {
		s.logger.ErrorContext(r.Context(), "register", "error", err)
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	s.issueAndRespond(w, r, u)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := s.repo.Authenticate(r.Context(), strings.TrimSpace(req.Username), req.Password)
	if errors.Is(err, storage.ErrInvalidCredentials) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		s.logger.ErrorContext(r.Context(), "login", "error", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	s.issueAndRespond(w, r, u)
}

func (s *Server) issueAndRespond(w http.ResponseWriter, r *http.Request, u storage.User) {
	now := s.ledger.Now()
	sess := session.Session{UserID: u.ID, StoreID: u.StoreID, StoreName: u.StoreName, LoginAt: now}
	token, err := session.Issue(s.secret, sess, now)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "issue token", "error", err)
		writeError(w, http.StatusInternalServerError, "could not issue token")
		return
	}

	s.ledger.RecordLogin(r.Context(), sess, u.Username)
	writeJSON(w, http.StatusOK, authResponse{Token: token, StoreID: u.StoreID, StoreName: u.StoreName})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess, err := sessionFrom(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "no session")
		return
	}
	duration := s.ledger.Now().Sub(sess.LoginAt)
	s.ledger.RecordLogout(r.Context(), sess, sess.UserID, duration)
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

type joinStoreRequest struct {
	StoreID string `json:"storeId"`
}

func (s *Server) handleJoinStore(w http.ResponseWriter, r *http.Request) {
	sess, err := sessionFrom(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "no session")
		return
	}

	var req joinStoreRequest
	if err := readJSON(w, r, &req); err != nil || strings.TrimSpace(req.StoreID) == "" {
		writeError(w, http.StatusBadRequest, "storeId is required")
		return
	}

	u, err := s.repo.JoinStore(r.Context(), sess.UserID, strings.TrimSpace(req.StoreID))
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "store not found")
		return
	}
	if err != nil {
		s.logger.ErrorContext(r.Context(), "join store", "error", err)
		writeError(w, http.StatusInternalServerError, "join failed")
		return
	}

	s.issueAndRespond(w, r, u)
}
