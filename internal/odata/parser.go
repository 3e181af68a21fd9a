package odata

// parser is a recursive-descent parser over the token stream tokenize
// produces, grounded on the teacher's ConditionParser: same
// current/peek-token cursor and or/and/not/comparison precedence ladder,
// generalized from the teacher's fixed "$key"/"$value" comparison fields to
// arbitrary per-Target identifiers and OData's typed literals.
type parser struct {
	tokens []token
	pos    int
	target Target
}

func newParser(tokens []token, target Target) *parser {
	return &parser{tokens: tokens, target: target}
}

func (p *parser) current() token {
	return p.tokens[p.pos]
}

// peekFrom returns the token offset tokens ahead of pos, or an EOF token if
// that runs past the end of the stream.
func (p *parser) peekFrom(offset int) token {
	i := p.pos + offset
	if i >= len(p.tokens) {
		return token{kind: tokEOF}
	}
	return p.tokens[i]
}

func (p *parser) advance() {
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
}

func (p *parser) parseOr() (expression, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.current().kind == tokOr {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &orExpr{left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (expression, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.current().kind == tokAnd {
		p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &andExpr{left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseNot() (expression, error) {
	if p.current().kind == tokNot {
		p.advance()
		x, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &notExpr{x: x}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (expression, error) {
	if p.current().kind == tokLParen {
		p.advance()
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.current().kind != tokRParen {
			return nil, ErrQueryConditionInvalid
		}
		p.advance()
		return expr, nil
	}
	return p.parseComparison()
}

// parseComparison parses the grammar's only leaf shape: identifier
// comparator literal. Every real OData filter condition is written with the
// field on the left, so — unlike the teacher's grammar, which also accepted
// a reversed "literal op field" — the left operand here is always resolved
// as an identifier.
func (p *parser) parseComparison() (expression, error) {
	left, err := p.parseIdentifierOperand()
	if err != nil {
		return nil, err
	}

	opTok := p.current()
	if opTok.kind != tokCompare {
		return nil, ErrQueryConditionInvalid
	}
	p.advance()

	right, err := p.parseLiteralOperand(true)
	if err != nil {
		return nil, err
	}

	return &compareExpr{left: left, right: right, op: opTok.text}, nil
}

func (p *parser) parseIdentifierOperand() (operand, error) {
	tok := p.current()
	if tok.kind != tokIdent {
		return nil, ErrQueryConditionInvalid
	}

	// spec.md §4.4: an identifier directly compared against a datetime
	// literal compiles to a parsed-date read. tokens[pos] is the identifier
	// itself, tokens[pos+1] the comparator, tokens[pos+2] the literal.
	asEpoch := p.peekFrom(2).kind == tokString && p.peekFrom(2).prefix == "datetime"

	if fieldName, ok := p.target.systemField(tok.text); ok {
		p.advance()
		return fieldOperand{name: fieldName, isSystem: true}, nil
	}
	if !p.target.allowsCustomProperties() {
		return nil, ErrQueryConditionInvalid
	}
	p.advance()
	return fieldOperand{name: tok.text, isSystem: false, asEpoch: asEpoch}, nil
}

// parseLiteralOperand resolves the right-hand side of a comparison.
// previousIsOp is always true at the one call site above — the grammar only
// ever asks for a literal operand immediately after consuming a comparator —
// but is threaded through explicitly to mirror spec.md §4.4's wording that
// datetime/long-integer/binary special-casing applies only to a literal
// found directly after a comparison operator.
func (p *parser) parseLiteralOperand(previousIsOp bool) (operand, error) {
	tok := p.current()
	switch tok.kind {
	case tokString:
		p.advance()
		switch tok.prefix {
		case "datetime":
			if !previousIsOp {
				return literalOperand{v: tok.value}, nil
			}
			t, err := parseODataDateTime(tok.value)
			if err != nil {
				return nil, ErrQueryConditionInvalid
			}
			return literalOperand{v: t.UnixMilli()}, nil
		case "binary", "X":
			// binary literals have no representation among this store's
			// property types, so they're rejected unconditionally — every
			// literal operand in this grammar is reached immediately after a
			// comparison operator, so previousIsOp is always true here.
			_ = previousIsOp
			return nil, ErrQueryConditionInvalid
		default:
			// "" covers both a bare string literal and a stripped guid prefix:
			// both compare as plain strings against the stored property.
			return literalOperand{v: tok.value}, nil
		}

	case tokNumber:
		p.advance()
		if longIntPattern.MatchString(tok.text) {
			// spec.md §4.4: long integers are stored as strings, so the
			// literal compiles to its digits as a string value regardless of
			// position; compareValues still compares numerically when both
			// sides parse as numbers.
			return literalOperand{v: tok.text[:len(tok.text)-1]}, nil
		}
		f, err := parseFloatToken(tok.text)
		if err != nil {
			return nil, ErrQueryConditionInvalid
		}
		return literalOperand{v: f}, nil

	case tokBool:
		p.advance()
		return literalOperand{v: tok.text == "true"}, nil

	default:
		return nil, ErrQueryConditionInvalid
	}
}
