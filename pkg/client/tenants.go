package client

import (
	"context"
	"net/http"
)

// TenantService covers tenant onboarding.
type TenantService struct {
	c *Client
}

// ProfileStatus reports onboarding progress for the signed-in tenant.
func (s *TenantService) ProfileStatus(ctx context.Context) (*ProfileStatus, error) {
	var out ProfileStatus
	if err := s.c.getJSON(ctx, apiPrefix+"/tenants/profile-status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CompleteProfile submits the assembled tenant profile payload.
func (s *TenantService) CompleteProfile(ctx context.Context, payload map[string]any) (*CompleteProfileResponse, error) {
	if len(payload) == 0 {
		return nil, errRequired("payload")
	}
	var out CompleteProfileResponse
	if err := s.c.sendJSON(ctx, http.MethodPost, apiPrefix+"/tenants/complete-profile", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
