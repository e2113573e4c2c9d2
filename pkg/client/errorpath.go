package client

import (
	"errors"
	"strconv"
	"strings"
	"unicode"
)

// FieldErrors splits the validation locations of an APIError into messages
// for known form fields and form-level leftovers. Backend locations use
// snake_case and wrapper segments ("body", "personal_info") while form fields
// are camelCase; both spellings are matched.
func FieldErrors(err error, fields []string) (map[string]string, []string) {
	var apiErr *APIError
	if !errors.As(err, &apiErr) || len(apiErr.Locations) == 0 {
		return nil, nil
	}

	known := make(map[string]string, len(fields)*2)
	for _, field := range fields {
		name := strings.TrimSpace(field)
		if name == "" {
			continue
		}
		known[name] = name
		known[snakeCase(name)] = name
	}

	out := make(map[string]string)
	var form []string
	for loc, msgs := range apiErr.Locations {
		msgs = normalizeMessages(msgs)
		if len(msgs) == 0 {
			continue
		}
		field := matchLocation(loc, known)
		if field == "" {
			form = append(form, msgs...)
			continue
		}
		if _, exists := out[field]; !exists {
			out[field] = msgs[0]
		}
	}
	if len(out) == 0 {
		out = nil
	}
	return out, normalizeMessages(form)
}

func matchLocation(loc string, known map[string]string) string {
	if isFormLevelKey(loc) {
		return ""
	}
	segments := stripNumericSegments(dropWrapperSegments(parsePathSegments(loc)))
	// deepest segment first: body.personal_info.first_name -> first_name
	for i := len(segments) - 1; i >= 0; i-- {
		if field, ok := known[segments[i]]; ok {
			return field
		}
	}
	return ""
}

func parsePathSegments(path string) []string {
	clean := strings.TrimSpace(path)
	clean = strings.TrimLeft(clean, "#$/.")
	clean = strings.NewReplacer("[", ".", "]", "").Replace(clean)
	clean = strings.Trim(clean, "./")
	if clean == "" {
		return nil
	}
	parts := strings.FieldsFunc(clean, func(r rune) bool {
		return r == '.' || r == '/'
	})
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if seg := strings.TrimSpace(part); seg != "" {
			out = append(out, seg)
		}
	}
	return out
}

func dropWrapperSegments(segments []string) []string {
	wrappers := map[string]struct{}{
		"body":    {},
		"query":   {},
		"form":    {},
		"request": {},
		"payload": {},
		"data":    {},
	}
	for len(segments) > 0 {
		if _, ok := wrappers[strings.ToLower(segments[0])]; !ok {
			break
		}
		segments = segments[1:]
	}
	return segments
}

func stripNumericSegments(segments []string) []string {
	out := make([]string, 0, len(segments))
	for _, segment := range segments {
		if _, err := strconv.Atoi(segment); err == nil {
			continue
		}
		out = append(out, segment)
	}
	return out
}

func isFormLevelKey(key string) bool {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "", ".", "/", "#", "$", "body", "__root__", "__all__", "non_field_errors":
		return true
	default:
		return false
	}
}

func normalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}
	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))
	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func snakeCase(name string) string {
	var b strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
