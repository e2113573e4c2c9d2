package flows

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-rentflow/pkg/client"
	"github.com/goliatone/go-rentflow/pkg/staging"
	"github.com/goliatone/go-rentflow/pkg/submission"
	v "github.com/goliatone/go-rentflow/pkg/validation"
	"github.com/goliatone/go-rentflow/pkg/wizard"
)

// FieldPropertyID holds the listing being applied for. It is seeded by the
// caller rather than prompted.
const FieldPropertyID = "propertyId"

func applicationValidators() map[string]wizard.Validator {
	required := func(label string) v.Check { return v.Required(v.RequiredMessage(label)) }
	return map[string]wizard.Validator{
		"personal": v.Rules(
			v.Field("firstName", required("First name")),
			v.Field("lastName", required("Last name")),
			v.Field("email", required("Email"), v.Email(MsgReferenceEmail)),
			v.Field("phone", required("Phone"), v.Phone("Please enter a valid phone number")),
			v.Field("dateOfBirth", v.Date(MsgDate)),
			v.Field("currentAddress", required("Current address")),
		),
		// reads employmentStatus from this step to decide which detail
		// fields are mandatory
		"employment": v.Rules(v.Group(
			[]v.Rule{v.Field("employmentStatus",
				v.Required("Please select your employment status"),
				v.OneOf("Please select your employment status", "employed", "self-employed", "student", "unemployed", "retired"),
			)},
			v.When("employmentStatus", "employed",
				v.Field("employerName", required("Employer name")),
				v.Field("jobTitle", required("Job title")),
				v.Field("monthlyIncome", v.PositiveNumber("Please enter a valid monthly income")),
			),
			v.When("employmentStatus", "self-employed",
				v.Field("monthlyIncome", v.PositiveNumber("Please enter a valid monthly income")),
			),
			[]v.Rule{v.Field("monthlyIncome", v.NonNegativeNumber("Please enter a valid monthly income"))},
		)...),
		"references": v.Rules(
			v.Field("referenceName", required("Reference name")),
			v.Field("referencePhone", required("Reference phone"), v.Phone("Please enter a valid phone number")),
			v.Field("referenceEmail", v.Email(MsgReferenceEmail)),
		),
		"documents": v.Rules(
			v.Field("idDocument", v.FilePresent(MsgIDDocument)),
			v.Field("proofOfIncome", v.FilePresent(MsgProofOfIncome)),
		),
		"review": v.Rules(
			v.Field("moveInDate", v.Date(MsgDate)),
			v.Field("agreeToTerms", v.MustAccept(MsgAgreeToTerms)),
		),
	}
}

// assembleApplication builds the JSON parts of the multipart application.
// Files are attached separately by the creator.
func assembleApplication(s wizard.Snapshot, _ map[string]string) (map[string]any, error) {
	propertyID := s.String(FieldPropertyID)
	if propertyID == "" {
		return nil, fmt.Errorf("flows: %s is not set", FieldPropertyID)
	}

	personal := map[string]any{
		"first_name":      cleanText(s.String("firstName")),
		"last_name":       cleanText(s.String("lastName")),
		"email":           s.String("email"),
		"phone":           s.String("phone"),
		"current_address": cleanText(s.String("currentAddress")),
	}
	if dob := s.String("dateOfBirth"); dob != "" {
		personal["date_of_birth"] = dob
	}

	status := strings.ToLower(s.String("employmentStatus"))
	employment := map[string]any{"status": status}
	if status == "employed" {
		employment["employer_name"] = cleanText(s.String("employerName"))
		employment["job_title"] = cleanText(s.String("jobTitle"))
	}
	if income, ok := s.Number("monthlyIncome"); ok {
		employment["monthly_income"] = income
	}

	reference := map[string]any{
		"name":  cleanText(s.String("referenceName")),
		"phone": s.String("referencePhone"),
	}
	if email := s.String("referenceEmail"); email != "" {
		reference["email"] = email
	}
	if rel := cleanText(s.String("referenceRelationship")); rel != "" {
		reference["relationship"] = rel
	}

	additional := map[string]any{
		"has_pets": s.Bool("hasPets"),
		"smoker":   s.Bool("smoker"),
	}
	if date := s.String("moveInDate"); date != "" {
		additional["move_in_date"] = date
	}
	if msg := cleanText(s.String("message")); msg != "" {
		additional["message"] = msg
	}

	return map[string]any{
		"property_id":     propertyID,
		"personal_info":   personal,
		"employment_info": employment,
		"references":      []any{reference},
		"additional_info": additional,
	}, nil
}

// applicationParts lists the JSON sub-objects in the order they are sent.
var applicationParts = []string{"personal_info", "employment_info", "references", "additional_info"}

// ApplicationCreator posts the application as multipart: property_id as a
// plain field, sub-objects as JSON parts and staged files under their
// payload names.
func ApplicationCreator(c *client.Client, aliases map[string]string) submission.Creator {
	return submission.CreatorFunc(func(ctx context.Context, payload map[string]any, staged map[string]*staging.FileRef) (any, error) {
		b := client.NewRequestBuilder()
		b.Field("property_id", fmt.Sprint(payload["property_id"]))
		for _, name := range applicationParts {
			if part, ok := payload[name]; ok {
				b.JSON(name, part)
			}
		}
		for _, slot := range sortedSlots(staged) {
			name := slot
			if alias, ok := aliases[slot]; ok {
				name = alias
			}
			b.File(name, staged[slot])
		}
		return c.Applications.Create(ctx, b)
	})
}
