// Package contract checks assembled payloads against the backend's OpenAPI
// request schemas before they leave the client.
package contract

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
)

// Operation ids declared in the embedded document.
const (
	OpRegister          = "registerUser"
	OpCompleteProfile   = "completeTenantProfile"
	OpCreateApplication = "createApplication"
)

//go:embed openapi.yaml
var embedded []byte

// ErrUnknownOperation is returned when an operation id has no request schema.
var ErrUnknownOperation = errors.New("contract: unknown operation")

// Issue is a single schema violation.
type Issue struct {
	Path    string `json:"path,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// ValidationError lists every violation found in one payload.
type ValidationError struct {
	Operation string
	Issues    []Issue
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return fmt.Sprintf("contract: %s payload is invalid", e.Operation)
	}
	first := e.Issues[0]
	if first.Field != "" {
		return fmt.Sprintf("contract: %s payload is invalid: %s: %s", e.Operation, first.Field, first.Message)
	}
	return fmt.Sprintf("contract: %s payload is invalid: %s", e.Operation, first.Message)
}

// Contract holds request schemas keyed by operation id.
type Contract struct {
	schemas map[string]*openapi3.Schema
}

// Load parses an OpenAPI document (JSON or YAML).
func Load(ctx context.Context, data []byte) (*Contract, error) {
	if len(data) == 0 {
		return nil, errors.New("contract: document payload is empty")
	}
	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("contract: load document: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("contract: invalid document: %w", err)
	}

	c := &Contract{schemas: make(map[string]*openapi3.Schema)}
	if doc.Paths == nil {
		return c, nil
	}
	for _, item := range doc.Paths.Map() {
		if item == nil {
			continue
		}
		for _, op := range item.Operations() {
			if op == nil || op.OperationID == "" || op.RequestBody == nil || op.RequestBody.Value == nil {
				continue
			}
			if schema := requestSchema(op.RequestBody.Value.Content); schema != nil {
				c.schemas[op.OperationID] = schema
			}
		}
	}
	return c, nil
}

func requestSchema(content openapi3.Content) *openapi3.Schema {
	for _, mediaType := range []string{"application/json", "multipart/form-data"} {
		media := content.Get(mediaType)
		if media != nil && media.Schema != nil && media.Schema.Value != nil {
			return media.Schema.Value
		}
	}
	return nil
}

var (
	defaultOnce     sync.Once
	defaultContract *Contract
	defaultErr      error
)

// Default returns the contract built from the embedded document.
func Default() (*Contract, error) {
	defaultOnce.Do(func() {
		defaultContract, defaultErr = Load(context.Background(), embedded)
	})
	return defaultContract, defaultErr
}

// Operations lists the operation ids with request schemas.
func (c *Contract) Operations() []string {
	out := make([]string, 0, len(c.schemas))
	for id := range c.schemas {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Validate checks payload against the request schema of operation. It
// returns nil or a *ValidationError.
func (c *Contract) Validate(operation string, payload any) error {
	schema, ok := c.schemas[operation]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownOperation, operation)
	}
	value, err := normalize(payload)
	if err != nil {
		return fmt.Errorf("contract: encode %s payload: %w", operation, err)
	}

	err = schema.VisitJSON(value, openapi3.MultiErrors())
	if err == nil {
		return nil
	}
	return &ValidationError{Operation: operation, Issues: collectIssues(err)}
}

// normalize round-trips through JSON so Go structs and typed numbers reach
// the validator as plain JSON values.
func normalize(payload any) (any, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func collectIssues(err error) []Issue {
	var multi openapi3.MultiError
	if errors.As(err, &multi) {
		var out []Issue
		for _, item := range multi {
			out = append(out, collectIssues(item)...)
		}
		return out
	}
	var schemaErr *openapi3.SchemaError
	if errors.As(err, &schemaErr) {
		pointer := schemaErr.JSONPointer()
		return []Issue{{
			Path:    "/" + strings.Join(pointer, "/"),
			Field:   strings.Join(pointer, "."),
			Message: strings.TrimSpace(schemaErr.Reason),
		}}
	}
	return []Issue{{Message: strings.TrimSpace(err.Error())}}
}

// Issues extracts the violations from an error returned by Validate.
func Issues(err error) []Issue {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Issues
	}
	return nil
}
