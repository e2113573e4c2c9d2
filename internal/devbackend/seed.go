package devbackend

import (
	"time"

	"github.com/goliatone/go-rentflow/pkg/client"
)

// SeedProperties returns the sample listings a fresh server starts with.
// CreatedAt values step back one day per listing from now.
func SeedProperties(now time.Time) []client.Property {
	props := []client.Property{
		{
			ID: "prop-lekki-2br", Title: "Serviced 2 bedroom flat", Location: "Lekki Phase 1, Lagos",
			Price: 450000, Bedrooms: 2, Bathrooms: 2, PropertyType: "apartment",
			Amenities: []string{"parking", "generator", "security"}, Verified: true,
		},
		{
			ID: "prop-yaba-1br", Title: "Mini flat near the tech hub", Location: "Yaba, Lagos",
			Price: 180000, Bedrooms: 1, Bathrooms: 1, PropertyType: "apartment",
			Amenities: []string{"water"},
		},
		{
			ID: "prop-ikoyi-4br", Title: "Detached duplex with pool", Location: "Ikoyi, Lagos",
			Price: 1500000, Bedrooms: 4, Bathrooms: 5, PropertyType: "house",
			Amenities: []string{"pool", "parking", "generator", "security"}, Verified: true,
		},
		{
			ID: "prop-wuse-3br", Title: "Family terrace", Location: "Wuse 2, Abuja",
			Price: 600000, Bedrooms: 3, Bathrooms: 3, PropertyType: "house",
			Amenities: []string{"parking", "security"}, Verified: true,
		},
		{
			ID: "prop-surulere-studio", Title: "Self-contained studio", Location: "Surulere, Lagos",
			Price: 90000, Bedrooms: 1, Bathrooms: 1, PropertyType: "studio",
		},
	}
	for i := range props {
		props[i].CreatedAt = now.UTC().Add(-time.Duration(i) * 24 * time.Hour)
	}
	return props
}
