package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"

	rentflow "github.com/goliatone/go-rentflow"
	"github.com/goliatone/go-rentflow/pkg/client"
	"github.com/goliatone/go-rentflow/pkg/flows"
	"github.com/goliatone/go-rentflow/pkg/listing"
	"github.com/goliatone/go-rentflow/pkg/prompt"
	"github.com/goliatone/go-rentflow/pkg/wizard"
)

func runSignup(ctx context.Context, a *app, _ []string) error {
	def, err := rentflow.LoadFlow(flows.Signup)
	if err != nil {
		return err
	}
	if _, err := a.runWizard(ctx, def, a.newStore()); err != nil {
		return err
	}
	if u := a.session.User(); u != nil {
		a.println(a.styles.Muted.Render("Signed in as " + u.Email))
	}
	return nil
}

func runLogin(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	if err := fs.Parse(args); err != nil {
		return err
	}
	driver := prompt.NewSurveyDriver(nil)
	if strings.TrimSpace(*email) == "" {
		v, err := driver.Input(ctx, prompt.InputConfig{Message: "Email"})
		if err != nil {
			return err
		}
		*email = v
	}
	password, err := driver.Password(ctx, prompt.InputConfig{Message: "Password"})
	if err != nil {
		return err
	}
	resp, err := a.api.Auth.Login(ctx, *email, password)
	if err != nil {
		return err
	}
	a.println(a.styles.Success.Render("Welcome back, " + resp.User.FullName()))
	return nil
}

func runLogout(_ context.Context, a *app, _ []string) error {
	if err := a.api.Auth.Logout(); err != nil {
		return err
	}
	a.println("Signed out.")
	return nil
}

func runStatus(ctx context.Context, a *app, _ []string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	status, err := a.api.Tenants.ProfileStatus(ctx)
	if err != nil {
		return err
	}
	lines := []string{
		a.styles.Header.Render("Tenant profile"),
		fmt.Sprintf("Completion:   %d%%", status.ProfileCompletion),
		fmt.Sprintf("Trust score:  %d", status.TrustScore),
		fmt.Sprintf("Verification: %s", status.VerificationStatus),
		fmt.Sprintf("Can apply:    %t", status.CanApply),
	}
	if len(status.MissingFields) > 0 {
		lines = append(lines, a.styles.Muted.Render("Missing: "+strings.Join(status.MissingFields, ", ")))
	}
	a.println(a.styles.Box.Render(strings.Join(lines, "\n")))
	return nil
}

func runProfile(ctx context.Context, a *app, _ []string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	def, err := rentflow.LoadFlow(flows.TenantProfile)
	if err != nil {
		return err
	}
	_, err = a.runWizard(ctx, def, a.newStore())
	return err
}

func runApply(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return errors.New("usage: rentflow apply <property-id>")
	}
	if err := a.requireLogin(); err != nil {
		return err
	}
	property, err := a.api.Properties.Get(ctx, args[0])
	if err != nil {
		return err
	}
	a.println(a.styles.Header.Render(fmt.Sprintf("Applying for %s (%s)", property.Title, property.Location)))

	def, err := rentflow.LoadFlow(flows.RentalApplication)
	if err != nil {
		return err
	}
	store := wizard.NewStore(
		wizard.WithStager(a.cfg.Stager()),
		wizard.WithValues(map[string]any{flows.FieldPropertyID: property.ID}),
	)
	a.seed(store)
	_, err = a.runWizard(ctx, def, store)
	return err
}

func runSearch(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	var f listing.Filter
	fs.StringVar(&f.Location, "location", "", "area or city")
	fs.Float64Var(&f.MinPrice, "min", 0, "minimum price")
	fs.Float64Var(&f.MaxPrice, "max", 0, "maximum price")
	fs.IntVar(&f.Bedrooms, "bedrooms", 0, "minimum bedrooms")
	fs.StringVar(&f.PropertyType, "type", "", "property type")
	fs.BoolVar(&f.VerifiedOnly, "verified", false, "verified listings only")
	amenities := fs.String("amenities", "", "comma separated amenities")
	sortBy := fs.String("sort", "", "price-asc, price-desc, newest or bedrooms")
	limit := fs.Int("limit", 20, "maximum results")
	if err := fs.Parse(args); err != nil {
		return err
	}
	key, err := listing.ParseSortKey(*sortBy)
	if err != nil {
		return err
	}
	for _, am := range strings.Split(*amenities, ",") {
		if am = strings.TrimSpace(am); am != "" {
			f.Amenities = append(f.Amenities, am)
		}
	}

	q := f.Query()
	q.Limit = *limit
	props, err := a.api.Properties.List(ctx, q)
	if err != nil {
		return err
	}
	props = f.Apply(props)
	listing.Sort(props, key)

	if len(props) == 0 {
		a.println(a.styles.Muted.Render("No listings match."))
		return nil
	}
	for _, p := range props {
		a.println(formatProperty(a, p))
	}
	return nil
}

func formatProperty(a *app, p client.Property) string {
	badge := ""
	if p.Verified {
		badge = " " + a.styles.Success.Render("verified")
	}
	return fmt.Sprintf("%s%s\n  %s  %s/month  %d bed  %s\n  id: %s",
		a.styles.Header.Render(p.Title), badge,
		p.Location, formatPrice(p.Price), p.Bedrooms, p.PropertyType,
		a.styles.Muted.Render(p.ID),
	)
}

func formatPrice(v float64) string {
	s := fmt.Sprintf("%.0f", v)
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return "NGN " + b.String()
}

func runFavorites(ctx context.Context, a *app, args []string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	action := "list"
	if len(args) > 0 {
		action = args[0]
	}
	switch action {
	case "list":
		favs, err := a.api.Favorites.List(ctx)
		if err != nil {
			return err
		}
		if len(favs) == 0 {
			a.println(a.styles.Muted.Render("No saved listings."))
		}
		for _, fav := range favs {
			if fav.Property != nil {
				a.println(formatProperty(a, *fav.Property))
				continue
			}
			a.println(fav.PropertyID)
		}
		return nil
	case "add", "remove":
		if len(args) != 2 {
			return fmt.Errorf("usage: rentflow favorites %s <property-id>", action)
		}
		if action == "add" {
			if _, err := a.api.Favorites.Add(ctx, args[1]); err != nil {
				return err
			}
			a.println("Saved.")
			return nil
		}
		if err := a.api.Favorites.Remove(ctx, args[1]); err != nil {
			return err
		}
		a.println("Removed.")
		return nil
	default:
		return fmt.Errorf("unknown favorites action %q (list, add, remove)", action)
	}
}

func runFlows(_ context.Context, a *app, _ []string) error {
	for _, name := range rentflow.Flows() {
		def, err := rentflow.LoadFlow(name)
		if err != nil {
			return err
		}
		a.println(fmt.Sprintf("%-20s %d steps  %s", name, len(def.Flow.Steps), def.Flow.Title))
	}
	return nil
}
