package rules

import (
	"errors"
	"fmt"
)

type parser struct {
	tokens []token
	pos    int
	idents map[string]struct{}
}

func (p *parser) parse() (node, error) {
	root, err := p.or()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.tokens) {
		return nil, fmt.Errorf("rules: unexpected token %q", p.tokens[p.pos].text)
	}
	return root, nil
}

func (p *parser) or() (node, error) {
	left, err := p.and()
	if err != nil {
		return nil, err
	}
	for p.accept(kOr) {
		right, err := p.and()
		if err != nil {
			return nil, err
		}
		left = orNode{left, right}
	}
	return left, nil
}

func (p *parser) and() (node, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.accept(kAnd) {
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = andNode{left, right}
	}
	return left, nil
}

func (p *parser) unary() (node, error) {
	if p.accept(kNot) {
		inner, err := p.unary()
		if err != nil {
			return nil, err
		}
		return notNode{inner}, nil
	}
	return p.primary()
}

func (p *parser) primary() (node, error) {
	if p.accept(kLParen) {
		inner, err := p.or()
		if err != nil {
			return nil, err
		}
		if !p.accept(kRParen) {
			return nil, errors.New("rules: missing closing ')'")
		}
		return inner, nil
	}

	if p.pos >= len(p.tokens) {
		return nil, errors.New("rules: unexpected end of expression")
	}
	tok := p.tokens[p.pos]
	if tok.kind != kIdent {
		return nil, fmt.Errorf("rules: expected identifier, got %q", tok.text)
	}
	p.pos++
	p.idents[tok.text] = struct{}{}

	if p.pos < len(p.tokens) {
		switch op := p.tokens[p.pos].kind; op {
		case kEq, kNeq, kLt, kLte, kGt, kGte:
			p.pos++
			lit, err := p.literal()
			if err != nil {
				return nil, err
			}
			if op != kEq && op != kNeq && lit.kind != kNumber {
				return nil, fmt.Errorf("rules: ordering comparison on %s requires a number", tok.text)
			}
			return compareNode{ident: tok.text, op: op, lit: lit}, nil
		}
	}
	return truthyNode{ident: tok.text}, nil
}

func (p *parser) literal() (token, error) {
	if p.pos >= len(p.tokens) {
		return token{}, errors.New("rules: missing literal")
	}
	tok := p.tokens[p.pos]
	p.pos++
	switch tok.kind {
	case kString, kNumber, kBool, kNull:
		return tok, nil
	case kIdent:
		// bare words compare as strings: userType == landlord
		return token{kString, tok.text}, nil
	default:
		return token{}, fmt.Errorf("rules: expected literal, got %q", tok.text)
	}
}

func (p *parser) accept(k kind) bool {
	if p.pos < len(p.tokens) && p.tokens[p.pos].kind == k {
		p.pos++
		return true
	}
	return false
}
