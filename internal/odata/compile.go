package odata

import (
	"strconv"
	"strings"
)

// Compile tokenizes and parses filter, returning a Predicate closure ready
// to evaluate against candidates of the given Target. An empty filter
// compiles to a predicate that matches everything, matching the store's
// "no $filter means no filtering" behavior.
func Compile(filter string, target Target) (Predicate, error) {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return func(Candidate) bool { return true }, nil
	}

	tokens, err := tokenize(filter)
	if err != nil {
		return nil, ErrQueryConditionInvalid
	}

	p := newParser(tokens, target)
	expr, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.current().kind != tokEOF {
		return nil, ErrQueryConditionInvalid
	}

	return func(c Candidate) bool { return expr.eval(c) }, nil
}

func parseFloatToken(text string) (float64, error) {
	return strconv.ParseFloat(text, 64)
}
