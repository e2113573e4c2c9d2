package flows

import (
	"context"
	"sort"

	"github.com/goliatone/go-rentflow/pkg/client"
	"github.com/goliatone/go-rentflow/pkg/staging"
	"github.com/goliatone/go-rentflow/pkg/submission"
	v "github.com/goliatone/go-rentflow/pkg/validation"
	"github.com/goliatone/go-rentflow/pkg/wizard"
)

func signupValidators() map[string]wizard.Validator {
	return map[string]wizard.Validator{
		"account": v.Rules(
			v.Field("firstName", v.Required(v.RequiredMessage("First name"))),
			v.Field("lastName", v.Required(v.RequiredMessage("Last name"))),
			v.Field("email", v.Required(v.RequiredMessage("Email")), v.Email(MsgReferenceEmail)),
			v.Field("phone", v.Phone("Please enter a valid phone number")),
			v.Field("password", v.Required(v.RequiredMessage("Password")), v.MinLength(8, "Password must be at least 8 characters")),
			v.Field("confirmPassword", v.Required("Please confirm your password"), v.Matches("password", "Passwords do not match")),
		),
		"account-type": v.Rules(
			v.Field("userType", v.Required("Please choose an account type"), v.OneOf("Please choose an account type", "tenant", "landlord")),
		),
		"preferences": v.Rules(
			v.Field("preferredLocation", v.Required(MsgLocation)),
			v.Field("budget", v.PositiveNumber(MsgBudget)),
			v.Field("bedrooms", v.NonNegativeNumber(MsgBedrooms)),
		),
	}
}

// assembleSignup builds the register payload. Preferences are only sent for
// tenants; a landlord never visits that step.
func assembleSignup(s wizard.Snapshot, _ map[string]string) (map[string]any, error) {
	payload := map[string]any{
		"email":      s.String("email"),
		"password":   s.String("password"),
		"first_name": cleanText(s.String("firstName")),
		"last_name":  cleanText(s.String("lastName")),
		"user_type":  s.String("userType"),
	}
	if phone := s.String("phone"); phone != "" {
		payload["phone"] = phone
	}
	if s.String("userType") != "landlord" {
		prefs := map[string]any{}
		if loc := cleanText(s.String("preferredLocation")); loc != "" {
			prefs["preferred_location"] = loc
		}
		if budget, ok := s.Number("budget"); ok {
			prefs["budget"] = budget
		}
		if beds, ok := s.Number("bedrooms"); ok {
			prefs["bedrooms"] = int(beds)
		}
		if len(prefs) > 0 {
			payload["preferences"] = prefs
		}
	}
	return payload, nil
}

// SignupCreator registers the account; the client stores the token.
func SignupCreator(c *client.Client) submission.Creator {
	return submission.CreatorFunc(func(ctx context.Context, payload map[string]any, _ map[string]*staging.FileRef) (any, error) {
		req := client.RegisterRequest{
			Email:     str(payload["email"]),
			Password:  str(payload["password"]),
			FirstName: str(payload["first_name"]),
			LastName:  str(payload["last_name"]),
			Phone:     str(payload["phone"]),
			UserType:  str(payload["user_type"]),
		}
		if prefs, ok := payload["preferences"].(map[string]any); ok {
			req.Preferences = prefs
		}
		return c.Auth.Register(ctx, req)
	})
}

// TenantProfileCreator posts the assembled profile.
func TenantProfileCreator(c *client.Client) submission.Creator {
	return submission.CreatorFunc(func(ctx context.Context, payload map[string]any, _ map[string]*staging.FileRef) (any, error) {
		return c.Tenants.CompleteProfile(ctx, payload)
	})
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func sortedSlots(staged map[string]*staging.FileRef) []string {
	out := make([]string, 0, len(staged))
	for slot, ref := range staged {
		if ref != nil {
			out = append(out, slot)
		}
	}
	sort.Strings(out)
	return out
}
