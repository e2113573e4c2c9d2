package rules

import (
	"fmt"
	"strconv"
	"strings"
)

type node interface {
	eval(env Env) (bool, error)
}

type orNode struct{ left, right node }

func (n orNode) eval(env Env) (bool, error) {
	ok, err := n.left.eval(env)
	if err != nil || ok {
		return ok, err
	}
	return n.right.eval(env)
}

type andNode struct{ left, right node }

func (n andNode) eval(env Env) (bool, error) {
	ok, err := n.left.eval(env)
	if err != nil || !ok {
		return false, err
	}
	return n.right.eval(env)
}

type notNode struct{ inner node }

func (n notNode) eval(env Env) (bool, error) {
	ok, err := n.inner.eval(env)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

type truthyNode struct{ ident string }

func (n truthyNode) eval(env Env) (bool, error) {
	value, ok := lookup(env, n.ident)
	if !ok {
		return false, nil
	}
	return truthy(value), nil
}

type compareNode struct {
	ident string
	op    kind
	lit   token
}

func (n compareNode) eval(env Env) (bool, error) {
	value, found := lookup(env, n.ident)

	switch n.lit.kind {
	case kNull:
		isNull := !found || value == nil
		return equality(n.op, isNull)
	case kBool:
		got, _ := toBool(value)
		return equality(n.op, got == (n.lit.text == "true"))
	case kString:
		return equality(n.op, toString(value) == n.lit.text)
	case kNumber:
		want, err := strconv.ParseFloat(n.lit.text, 64)
		if err != nil {
			return false, fmt.Errorf("invalid number %q", n.lit.text)
		}
		got, ok := toNumber(value)
		if !ok {
			// missing or non-numeric values never satisfy an ordering check
			if n.op == kNeq {
				return true, nil
			}
			return false, nil
		}
		switch n.op {
		case kEq:
			return got == want, nil
		case kNeq:
			return got != want, nil
		case kLt:
			return got < want, nil
		case kLte:
			return got <= want, nil
		case kGt:
			return got > want, nil
		case kGte:
			return got >= want, nil
		}
	}
	return false, fmt.Errorf("unsupported comparison on %s", n.ident)
}

func equality(op kind, equal bool) (bool, error) {
	switch op {
	case kEq:
		return equal, nil
	case kNeq:
		return !equal, nil
	default:
		return false, fmt.Errorf("operator not supported for this literal")
	}
}

func lookup(env Env, key string) (any, bool) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, false
	}
	if strings.HasPrefix(strings.ToLower(key), "extras.") {
		return lookupPath(env.Extras, key[len("extras."):])
	}
	return lookupPath(env.Values, key)
}

func lookupPath(values map[string]any, path string) (any, bool) {
	if len(values) == 0 || path == "" {
		return nil, false
	}
	if v, ok := values[path]; ok {
		return v, true
	}

	var current any = values
	for _, part := range strings.Split(path, ".") {
		switch typed := current.(type) {
		case map[string]any:
			next, ok := typed[part]
			if !ok {
				return nil, false
			}
			current = next
		case map[string]string:
			next, ok := typed[part]
			if !ok {
				return nil, false
			}
			current = next
		default:
			return nil, false
		}
	}
	return current, true
}

func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return strings.TrimSpace(v) != ""
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	}
	if n, ok := toNumber(value); ok {
		return n != 0
	}
	return true
}

func toBool(value any) (bool, bool) {
	switch v := value.(type) {
	case nil:
		return false, false
	case bool:
		return v, true
	case string:
		if parsed, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return parsed, true
		}
		return strings.TrimSpace(v) != "", true
	}
	return truthy(value), true
}

func toNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}

func toString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	}
	return fmt.Sprint(value)
}
