package client

import "time"

// User is the account record returned by the auth endpoints.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone,omitempty"`
	UserType  string `json:"user_type,omitempty"`
}

// FullName joins first and last name.
func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}

// RegisterRequest is the signup payload.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone,omitempty"`
	UserType  string `json:"user_type"`
	// Preferences is only sent for tenants.
	Preferences map[string]any `json:"preferences,omitempty"`
}

// LoginRequest carries credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Success     bool   `json:"success"`
	User        User   `json:"user"`
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// ProfileStatus reports how far a tenant got with onboarding.
type ProfileStatus struct {
	ProfileCompletion   int      `json:"profile_completion"`
	OnboardingCompleted bool     `json:"onboarding_completed"`
	TrustScore          int      `json:"trust_score"`
	VerificationStatus  string   `json:"verification_status"`
	MissingFields       []string `json:"missing_fields"`
	CanApply            bool     `json:"can_apply"`
}

// CompleteProfileResponse is returned by the complete-profile endpoint.
type CompleteProfileResponse struct {
	Success    bool           `json:"success"`
	Message    string         `json:"message"`
	Profile    map[string]any `json:"profile"`
	TrustScore int            `json:"trust_score"`
}

// Application is a rental application record.
type Application struct {
	ID             string         `json:"id"`
	PropertyID     string         `json:"property_id"`
	Status         string         `json:"status"`
	PersonalInfo   map[string]any `json:"personal_info,omitempty"`
	EmploymentInfo map[string]any `json:"employment_info,omitempty"`
	References     []any          `json:"references,omitempty"`
	AdditionalInfo map[string]any `json:"additional_info,omitempty"`
	Documents      map[string]any `json:"documents,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

// Property is a listing.
type Property struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Location     string    `json:"location"`
	Price        float64   `json:"price"`
	Bedrooms     int       `json:"bedrooms"`
	Bathrooms    int       `json:"bathrooms"`
	PropertyType string    `json:"property_type"`
	Amenities    []string  `json:"amenities,omitempty"`
	Verified     bool      `json:"verified"`
	CreatedAt    time.Time `json:"created_at"`
}

// PropertyQuery filters the remote property list.
type PropertyQuery struct {
	Location     string
	MinPrice     float64
	MaxPrice     float64
	Bedrooms     int
	PropertyType string
	Page         int
	Limit        int
}

// Favorite links a user to a saved property.
type Favorite struct {
	ID         string    `json:"id"`
	PropertyID string    `json:"property_id"`
	Property   *Property `json:"property,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
