package flows

import (
	"fmt"

	v "github.com/goliatone/go-rentflow/pkg/validation"
	"github.com/goliatone/go-rentflow/pkg/wizard"
)

// Messages shown by the tenant profile wizard.
const (
	MsgBudget         = "Please enter a valid budget"
	MsgLocation       = "Preferred location is required"
	MsgBedrooms       = "Please select the number of bedrooms"
	MsgDate           = "Please enter a valid date (YYYY-MM-DD)"
	MsgIDDocument     = "Valid ID is required"
	MsgProofOfIncome  = "Proof of income is required"
	MsgReferenceEmail = "Please enter a valid email address"
	MsgAgreeToTerms   = "You must agree to the terms"
)

func tenantProfileValidators() map[string]wizard.Validator {
	return map[string]wizard.Validator{
		"preferences": v.Rules(
			v.Field("budget", v.PositiveNumber(MsgBudget)),
			v.Field("preferredLocation", v.Required(MsgLocation)),
			v.Field("bedrooms", v.PositiveNumber(MsgBedrooms)),
			v.Field("moveInDate", v.Date(MsgDate)),
		),
		"documents": v.Rules(
			v.Field("idDocument", v.FilePresent(MsgIDDocument)),
		),
		// reference emails are optional but must be well formed
		"review": v.Rules(
			v.Field("referenceEmail1", v.Email(MsgReferenceEmail)),
			v.Field("referenceEmail2", v.Email(MsgReferenceEmail)),
			v.Field("agreeToTerms", v.MustAccept(MsgAgreeToTerms)),
		),
	}
}

// assembleTenantProfile builds the complete-profile payload. Document URLs
// arrive keyed by payload name (id_document, proof_of_income).
func assembleTenantProfile(s wizard.Snapshot, urls map[string]string) (map[string]any, error) {
	budget, ok := s.Number("budget")
	if !ok {
		return nil, fmt.Errorf("flows: budget %q is not a number", s.String("budget"))
	}
	bedrooms, ok := s.Number("bedrooms")
	if !ok {
		return nil, fmt.Errorf("flows: bedrooms %q is not a number", s.String("bedrooms"))
	}

	docs := map[string]any{}
	for key, url := range urls {
		docs[key] = url
	}

	var refs []string
	for _, name := range []string{"referenceEmail1", "referenceEmail2"} {
		if email := s.String(name); email != "" {
			refs = append(refs, email)
		}
	}

	payload := map[string]any{
		"budget":             budget,
		"preferred_location": cleanText(s.String("preferredLocation")),
		"bedrooms":           int(bedrooms),
		"documents":          docs,
		"rent_credit_opt_in": s.Bool("rentCreditOptIn"),
		"agree_to_terms":     s.Bool("agreeToTerms"),
	}
	if date := s.String("moveInDate"); date != "" {
		payload["move_in_date"] = date
	}
	if len(refs) > 0 {
		payload["reference_emails"] = refs
	}
	return payload, nil
}
