package devbackend

import (
	"net/http"
	"strings"

	"github.com/goliatone/go-rentflow/pkg/client"
)

// profileFields are counted towards profile completion, in display order.
var profileFields = []string{"budget", "preferred_location", "bedrooms", "id_document", "proof_of_income", "reference_emails"}

func (s *Server) handleProfileStatus(w http.ResponseWriter, _ *http.Request, userID string) {
	s.mu.Lock()
	profile := s.profiles[userID]
	score := s.trust[userID]
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, profileStatus(profile, score))
}

func profileStatus(profile map[string]any, score int) client.ProfileStatus {
	status := client.ProfileStatus{
		TrustScore:         score,
		VerificationStatus: "unverified",
		MissingFields:      []string{},
	}
	present := 0
	for _, name := range profileFields {
		if hasProfileField(profile, name) {
			present++
			continue
		}
		status.MissingFields = append(status.MissingFields, name)
	}
	status.ProfileCompletion = present * 100 / len(profileFields)
	if done, _ := profile["onboarding_completed"].(bool); done {
		status.OnboardingCompleted = true
		status.VerificationStatus = "pending"
		status.CanApply = hasProfileField(profile, "id_document")
	}
	return status
}

func hasProfileField(profile map[string]any, name string) bool {
	if profile == nil {
		return false
	}
	switch name {
	case "id_document", "proof_of_income":
		docs, _ := profile["documents"].(map[string]any)
		url, _ := docs[name].(string)
		return strings.TrimSpace(url) != ""
	case "reference_emails":
		refs, _ := profile[name].([]any)
		return len(refs) > 0
	}
	v, ok := profile[name]
	if !ok || v == nil {
		return false
	}
	if str, isStr := v.(string); isStr {
		return strings.TrimSpace(str) != ""
	}
	return true
}

func (s *Server) handleCompleteProfile(w http.ResponseWriter, r *http.Request, userID string) {
	var payload map[string]any
	if !decodeJSON(w, r, &payload) {
		return
	}
	if list := checkProfile(payload); len(list) > 0 {
		writeIssues(w, list)
		return
	}
	if s.injected(w, FaultCreates) {
		return
	}

	payload["onboarding_completed"] = true
	score := trustScore(payload)

	s.mu.Lock()
	if prev := s.profiles[userID]; prev != nil {
		if prefs, ok := prev["preferences"]; ok {
			payload["preferences"] = prefs
		}
	}
	s.profiles[userID] = payload
	s.trust[userID] = score
	s.mu.Unlock()

	s.logger.Info("devbackend: profile completed", "user", userID, "trust_score", score)
	writeJSON(w, http.StatusOK, client.CompleteProfileResponse{
		Success:    true,
		Message:    "Profile completed successfully",
		Profile:    payload,
		TrustScore: score,
	})
}

func checkProfile(p map[string]any) issues {
	var list issues
	if budget, ok := p["budget"].(float64); !ok || budget <= 0 {
		list.add("Budget must be greater than 0", "budget")
	}
	if loc, _ := p["preferred_location"].(string); strings.TrimSpace(loc) == "" {
		list.add("field required", "preferred_location")
	}
	if beds, ok := p["bedrooms"].(float64); !ok || beds < 1 || beds != float64(int(beds)) {
		list.add("Bedrooms must be a positive whole number", "bedrooms")
	}
	docs, _ := p["documents"].(map[string]any)
	if id, _ := docs["id_document"].(string); strings.TrimSpace(id) == "" {
		list.add("ID document is required", "documents", "id_document")
	}
	if agreed, _ := p["agree_to_terms"].(bool); !agreed {
		list.add("You must agree to the terms", "agree_to_terms")
	}
	return list
}

// trustScore rewards verifiable material: documents, references and rent
// credit reporting.
func trustScore(p map[string]any) int {
	score := 40
	if hasProfileField(p, "id_document") {
		score += 20
	}
	if hasProfileField(p, "proof_of_income") {
		score += 20
	}
	if refs, _ := p["reference_emails"].([]any); len(refs) > 0 {
		score += 5 * min(len(refs), 2)
	}
	if opted, _ := p["rent_credit_opt_in"].(bool); opted {
		score += 10
	}
	return min(score, 100)
}
