package rules

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type kind int

const (
	kIdent kind = iota
	kString
	kNumber
	kBool
	kNull
	kEq
	kNeq
	kLt
	kLte
	kGt
	kGte
	kAnd
	kOr
	kNot
	kLParen
	kRParen
)

type token struct {
	kind kind
	text string
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isDelimiter(c byte) bool {
	return isSpace(c) || strings.IndexByte("()!=&|<>", c) >= 0
}

func lex(input string) ([]token, error) {
	var out []token
	for i := 0; i < len(input); {
		c := input[i]
		if isSpace(c) {
			i++
			continue
		}

		peek := byte(0)
		if i+1 < len(input) {
			peek = input[i+1]
		}

		switch {
		case c == '(':
			out = append(out, token{kLParen, "("})
			i++
		case c == ')':
			out = append(out, token{kRParen, ")"})
			i++
		case c == '!' && peek == '=':
			out = append(out, token{kNeq, "!="})
			i += 2
		case c == '!':
			out = append(out, token{kNot, "!"})
			i++
		case c == '=' && peek == '=':
			out = append(out, token{kEq, "=="})
			i += 2
		case c == '=':
			return nil, fmt.Errorf("rules: unexpected '=' at %d; use '=='", i)
		case c == '<' && peek == '=':
			out = append(out, token{kLte, "<="})
			i += 2
		case c == '<':
			out = append(out, token{kLt, "<"})
			i++
		case c == '>' && peek == '=':
			out = append(out, token{kGte, ">="})
			i += 2
		case c == '>':
			out = append(out, token{kGt, ">"})
			i++
		case c == '&' && peek == '&':
			out = append(out, token{kAnd, "&&"})
			i += 2
		case c == '|' && peek == '|':
			out = append(out, token{kOr, "||"})
			i += 2
		case c == '&' || c == '|':
			return nil, fmt.Errorf("rules: unexpected %q at %d", c, i)
		case c == '"' || c == '\'':
			value, next, err := scanString(input, i)
			if err != nil {
				return nil, err
			}
			out = append(out, token{kString, value})
			i = next
		default:
			start := i
			for i < len(input) && !isDelimiter(input[i]) {
				i++
			}
			out = append(out, word(input[start:i]))
		}
	}
	return out, nil
}

func scanString(input string, start int) (string, int, error) {
	quote := input[start]
	escaped := false
	for i := start + 1; i < len(input); i++ {
		c := input[i]
		if escaped {
			escaped = false
			continue
		}
		if c == '\\' {
			escaped = true
			continue
		}
		if c != quote {
			continue
		}
		body := input[start+1 : i]
		if quote == '\'' {
			body = strings.ReplaceAll(body, `\'`, `'`)
			body = strings.ReplaceAll(body, `"`, `\"`)
		}
		value, err := strconv.Unquote(`"` + body + `"`)
		if err != nil {
			return "", 0, fmt.Errorf("rules: invalid string literal: %w", err)
		}
		return value, i + 1, nil
	}
	return "", 0, errors.New("rules: unterminated string literal")
}

func word(raw string) token {
	switch strings.ToLower(raw) {
	case "true", "false":
		return token{kBool, strings.ToLower(raw)}
	case "null", "nil":
		return token{kNull, "null"}
	case "and":
		return token{kAnd, "&&"}
	case "or":
		return token{kOr, "||"}
	case "not":
		return token{kNot, "!"}
	}
	if _, err := strconv.ParseFloat(raw, 64); err == nil {
		return token{kNumber, raw}
	}
	return token{kIdent, raw}
}
