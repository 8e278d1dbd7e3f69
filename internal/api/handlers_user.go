package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sachima/sachima/internal/auth"
	"github.com/sachima/sachima/internal/registry"
	"github.com/sachima/sachima/internal/reply"
)

// maxCredentialBody bounds the JSON body of the user routes.
const maxCredentialBody = 1 << 16

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

func (s *Server) decodeCredentials(w http.ResponseWriter, r *http.Request) (credentials, bool) {
	var req credentials
	r.Body = http.MaxBytesReader(w, r.Body, maxCredentialBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return req, false
	}
	if req.Username == "" || req.Password == "" {
		s.sendError(w, http.StatusBadRequest, "username and password required")
		return req, false
	}
	return req, true
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeCredentials(w, r)
	if !ok {
		return
	}

	err := s.auth.Register(r.Context(), req.Username, req.Password)
	if errors.Is(err, registry.ErrUserExists) {
		reply.WriteError(w, r, reply.ErrAlreadyExists)
		return
	}
	if err != nil {
		reply.WriteError(w, r, reply.Internal(err))
		return
	}
	reply.WriteData(w, nil)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeCredentials(w, r)
	if !ok {
		return
	}

	token, err := s.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		reply.WriteError(w, r, reply.Internal(err))
		return
	}
	reply.WriteData(w, tokenResponse{Token: token})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		s.sendError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	reply.WriteData(w, auth.Info(id))
}
