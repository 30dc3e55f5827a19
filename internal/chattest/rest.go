package chattest

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/vinhng/zolaterm/internal/model"
	"golang.org/x/crypto/bcrypt"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

type authResponse struct {
	User  model.UserProfile `json:"user"`
	Token string            `json:"token"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.mu.Lock()
	acc, ok := s.accounts[req.Username]
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	writeJSON(w, http.StatusOK, authResponse{User: acc.profile, Token: "tok-" + req.Username})
}

func (s *Server) handleRequestCode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		writeError(w, http.StatusBadRequest, "email required")
		return
	}
	s.mu.Lock()
	s.pendingCodes[req.Email] = RegisterCode
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Code     string `json:"code"`
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.mu.Lock()
	code, pending := s.pendingCodes[req.Email]
	_, taken := s.accounts[req.Username]
	s.mu.Unlock()
	if !pending || code != req.Code {
		writeError(w, http.StatusUnauthorized, "invalid or expired code")
		return
	}
	if taken {
		writeError(w, http.StatusConflict, "username already taken")
		return
	}
	profile := model.UserProfile{Username: req.Username, Email: req.Email}
	s.AddAccount(profile, req.Password)
	writeJSON(w, http.StatusOK, authResponse{User: profile, Token: "tok-" + req.Username})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	var users []model.UserProfile
	s.mu.Lock()
	for _, acc := range s.accounts {
		if q == "" || strings.Contains(acc.profile.Username, q) {
			users = append(users, acc.profile)
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (s *Server) handleExists(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	exists := false
	s.mu.Lock()
	for _, acc := range s.accounts {
		if v := query.Get("username"); v != "" && acc.profile.Username == v {
			exists = true
		}
		if v := query.Get("email"); v != "" && acc.profile.Email == v {
			exists = true
		}
		if v := query.Get("phone"); v != "" && acc.profile.Phone == v {
			exists = true
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]bool{"exists": exists})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	username := strings.TrimPrefix(token, "tok-")
	s.mu.Lock()
	acc, ok := s.accounts[username]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, acc.profile)
	case http.MethodPut:
		var p model.UserProfile
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		p.Username = acc.profile.Username
		s.mu.Lock()
		acc.profile = p
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}
