package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

const apiPrefix = "/api/v1"

// AuthService covers registration, login and the current account.
type AuthService struct {
	c *Client
}

// Register creates an account and stores the returned token in the session.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	if strings.TrimSpace(req.Email) == "" {
		return nil, errRequired("email")
	}
	if req.Password == "" {
		return nil, errRequired("password")
	}
	var out AuthResponse
	if err := s.c.sendJSON(ctx, http.MethodPost, apiPrefix+"/auth/register", req, &out); err != nil {
		return nil, err
	}
	if err := s.remember(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login exchanges credentials for a token and stores it in the session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, errRequired("email")
	}
	if password == "" {
		return nil, errRequired("password")
	}
	var out AuthResponse
	if err := s.c.sendJSON(ctx, http.MethodPost, apiPrefix+"/auth/login", LoginRequest{Email: email, Password: password}, &out); err != nil {
		return nil, err
	}
	if err := s.remember(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout forgets the local session. The backend keeps no server-side state.
func (s *AuthService) Logout() error {
	return s.c.session.Clear()
}

// Me fetches the account behind the current token and refreshes the cached
// user.
func (s *AuthService) Me(ctx context.Context) (*User, error) {
	var user User
	if err := s.c.getJSON(ctx, apiPrefix+"/auth/me", nil, &user); err != nil {
		return nil, err
	}
	if token := s.c.session.Token(); token != "" {
		if err := s.c.session.Set(token, &user); err != nil {
			s.c.logger.Warn("client: cache user", "error", err)
		}
	}
	return &user, nil
}

func (s *AuthService) remember(resp *AuthResponse) error {
	if resp.AccessToken == "" {
		return fmt.Errorf("client: auth response carried no access token")
	}
	user := resp.User
	if err := s.c.session.Set(resp.AccessToken, &user); err != nil {
		return fmt.Errorf("client: save session: %w", err)
	}
	return nil
}
