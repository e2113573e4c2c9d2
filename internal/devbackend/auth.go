package devbackend

import (
	"net/http"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/goliatone/go-rentflow/pkg/client"
)

const minPasswordLength = 8

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req client.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	var list issues
	if _, err := mail.ParseAddress(req.Email); err != nil {
		list.add("value is not a valid email address", "email")
	}
	if len(req.Password) < minPasswordLength {
		list.add("Password must be at least 8 characters", "password")
	}
	if strings.TrimSpace(req.FirstName) == "" {
		list.add("field required", "first_name")
	}
	if strings.TrimSpace(req.LastName) == "" {
		list.add("field required", "last_name")
	}
	if req.UserType != "tenant" && req.UserType != "landlord" {
		list.add("user_type must be tenant or landlord", "user_type")
	}
	if len(list) > 0 {
		writeIssues(w, list)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Could not create account")
		return
	}

	s.mu.Lock()
	if _, taken := s.emails[req.Email]; taken {
		s.mu.Unlock()
		writeDetail(w, http.StatusBadRequest, "Email already registered")
		return
	}
	acct := &account{
		user: client.User{
			ID:        uuid.NewString(),
			Email:     req.Email,
			FirstName: strings.TrimSpace(req.FirstName),
			LastName:  strings.TrimSpace(req.LastName),
			Phone:     strings.TrimSpace(req.Phone),
			UserType:  req.UserType,
		},
		hash: hash,
	}
	s.accounts[acct.user.ID] = acct
	s.emails[req.Email] = acct.user.ID
	if req.UserType == "tenant" && len(req.Preferences) > 0 {
		s.profiles[acct.user.ID] = map[string]any{"preferences": req.Preferences}
	}
	token := s.issueLocked(acct.user.ID)
	user := acct.user
	s.mu.Unlock()

	s.logger.Info("devbackend: registered", "user", user.ID, "type", user.UserType)
	writeJSON(w, http.StatusCreated, client.AuthResponse{Success: true, User: user, AccessToken: token, TokenType: "bearer"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req client.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	s.mu.Lock()
	acct := s.accounts[s.emails[email]]
	s.mu.Unlock()
	if acct == nil || bcrypt.CompareHashAndPassword(acct.hash, []byte(req.Password)) != nil {
		writeDetail(w, http.StatusUnauthorized, "Incorrect email or password")
		return
	}

	s.mu.Lock()
	token := s.issueLocked(acct.user.ID)
	user := acct.user
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, client.AuthResponse{Success: true, User: user, AccessToken: token, TokenType: "bearer"})
}

func (s *Server) handleMe(w http.ResponseWriter, _ *http.Request, userID string) {
	s.mu.Lock()
	acct := s.accounts[userID]
	s.mu.Unlock()
	if acct == nil {
		writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	writeJSON(w, http.StatusOK, acct.user)
}

func (s *Server) issueLocked(userID string) string {
	token := uuid.NewString()
	s.tokens[token] = userID
	return token
}
