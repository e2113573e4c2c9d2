package prompt

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-rentflow/pkg/staging"
	"github.com/goliatone/go-rentflow/pkg/wizard"
)

//go:embed templates/*.tpl
var templateFiles embed.FS

var (
	summaryOnce sync.Once
	summaryTpl  *pongo2.Template
	summaryErr  error
)

func summaryTemplate() (*pongo2.Template, error) {
	summaryOnce.Do(func() {
		set := pongo2.NewSet("rentflow", pongo2.NewFSLoader(templateFiles))
		summaryTpl, summaryErr = set.FromFile("templates/summary.tpl")
		if summaryErr != nil {
			summaryErr = fmt.Errorf("prompt: load summary template: %w", summaryErr)
		}
	})
	return summaryTpl, summaryErr
}

// Summary renders every answer collected on the given steps, used by review
// steps before the final confirmation.
func Summary(steps []wizard.Step, snapshot wizard.Snapshot, staged map[string]*staging.FileRef) (string, error) {
	tpl, err := summaryTemplate()
	if err != nil {
		return "", err
	}

	rows := make([]map[string]any, 0, len(steps))
	for _, step := range steps {
		var fields []map[string]any
		for _, f := range step.Fields {
			fields = append(fields, map[string]any{
				"label": f.DisplayLabel(),
				"value": displayValue(f, snapshot, staged),
			})
		}
		rows = append(rows, map[string]any{
			"index":  step.Index,
			"title":  step.Title,
			"fields": fields,
		})
	}

	out, err := tpl.Execute(pongo2.Context{"steps": rows})
	if err != nil {
		return "", fmt.Errorf("prompt: render summary: %w", err)
	}
	return strings.TrimRight(out, "\n"), nil
}

func displayValue(f wizard.FieldSpec, snapshot wizard.Snapshot, staged map[string]*staging.FileRef) string {
	switch f.Kind {
	case wizard.FieldFile:
		if ref := staged[f.Name]; ref != nil {
			return ref.Name
		}
		return "(none)"
	case wizard.FieldPassword:
		if snapshot.String(f.Name) == "" {
			return "(not set)"
		}
		return "********"
	case wizard.FieldConfirm:
		if snapshot.Bool(f.Name) {
			return "yes"
		}
		return "no"
	}
	if v := snapshot.String(f.Name); v != "" {
		return v
	}
	return "(not set)"
}
