package server

import (
	"net/http"

	"github.com/desertthunder/practicelog/internal/shared"
)

type credentialsRequest struct {
	UserName string `json:"user_name"`
	Password string `json:"password"`
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	if err := sessionErrFrom(r.Context()); err != nil {
		respondError(w, r, s.logger, err)
		return
	}
	if _, ok := UserIDFrom(r.Context()); ok {
		respondError(w, r, s.logger, shared.Forbidden("Cannot create a new user while logged in"))
		return
	}

	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, s.logger, err)
		return
	}

	user, err := s.auth.Register(r.Context(), req.UserName, req.Password)
	if err != nil {
		respondError(w, r, s.logger, err)
		return
	}

	respond(w, map[string]any{"user": user})
}

// handleLogin always issues a fresh token; a token the client already holds is invalidated.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, s.logger, err)
		return
	}

	token, user, err := s.auth.Login(r.Context(), tokenFrom(r.Context()), req.UserName, req.Password)
	if err != nil {
		respondError(w, r, s.logger, err)
		return
	}

	s.cookies.Set(w, token)
	respond(w, map[string]any{"user": user, "token": token})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.Logout(r.Context(), tokenFrom(r.Context())); err != nil {
		respondError(w, r, s.logger, err)
		return
	}

	s.cookies.Clear(w)
	respond(w, nil)
}

func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request, userID int64) {
	user, err := s.auth.User(r.Context(), userID)
	if err != nil {
		respondError(w, r, s.logger, err)
		return
	}
	respond(w, map[string]any{"user": user})
}
