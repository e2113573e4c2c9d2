package rules

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRuleComparisons(t *testing.T) {
	t.Parallel()

	values := map[string]any{
		"userType":         "tenant",
		"budget":           "500000",
		"bedrooms":         2,
		"agreeToTerms":     true,
		"employmentStatus": "employed",
		"notes":            "",
		"profile":          map[string]any{"verified": "true"},
	}

	cases := []struct {
		rule string
		want bool
	}{
		{`userType != "landlord"`, true},
		{`userType == 'tenant'`, true},
		{`userType == landlord`, false},
		{`budget >= 100000`, true},
		{`budget < 100000`, false},
		{`bedrooms == 2 && agreeToTerms`, true},
		{`bedrooms > 3 || employmentStatus == "employed"`, true},
		{`!notes`, true},
		{`not (userType == "landlord")`, true},
		{`missing == null`, true},
		{`missing != null`, false},
		{`missing > 0`, false},
		{`profile.verified == true`, true},
		{``, true},
	}

	for _, tc := range cases {
		rule, err := Compile(tc.rule)
		if err != nil {
			t.Fatalf("compile %q: %v", tc.rule, err)
		}
		got, err := rule.Match(values)
		if err != nil {
			t.Fatalf("eval %q: %v", tc.rule, err)
		}
		if got != tc.want {
			t.Errorf("%q: got %v want %v", tc.rule, got, tc.want)
		}
	}
}

func TestRuleExtras(t *testing.T) {
	t.Parallel()

	rule := MustCompile(`extras.role == "admin" && enabled`)
	ok, err := rule.Eval(Env{
		Values: map[string]any{"enabled": true},
		Extras: map[string]any{"role": "admin"},
	})
	if err != nil || !ok {
		t.Fatalf("expected true, got %v (%v)", ok, err)
	}
	if diff := cmp.Diff([]string{"enabled"}, rule.Fields()); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
}

func TestRuleFieldsAreSorted(t *testing.T) {
	t.Parallel()

	rule := MustCompile(`userType != "landlord" && (budget > 0 || userType == "tenant")`)
	if diff := cmp.Diff([]string{"budget", "userType"}, rule.Fields()); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
}

func TestCompileErrors(t *testing.T) {
	t.Parallel()

	for _, src := range []string{
		`userType = "x"`,
		`userType == "x`,
		`(a == 1`,
		`a ==`,
		`a & b`,
		`budget > "high"`,
		`== 3`,
	} {
		if _, err := Compile(src); err == nil {
			t.Errorf("expected compile error for %q", src)
		}
	}
}

func TestNilRuleAlwaysMatches(t *testing.T) {
	t.Parallel()

	var rule *Rule
	ok, err := rule.Match(nil)
	if err != nil || !ok {
		t.Fatalf("nil rule should match, got %v (%v)", ok, err)
	}
}
