package main

import (
	"errors"
	"fmt"
	"hash/fnv"
	"slices"
	"spreadsheetEngine/contracts"
	"strings"
)

const FormulaPrefix = "="

var FormulaFormatError = errors.New("formula format error")

// Formula is an immutable, validated infix expression over numbers,
// variables, `+ - * /` and parentheses.
type Formula struct {
	// variables are stored normalized
	tokens    []Token
	variables []string
	canonical string
}

func NewFormula(text string, normalize contracts.Normalizer, isValid contracts.Validator) (*Formula, error) {
	if normalize == nil {
		normalize = func(name string) string { return name }
	}
	if isValid == nil {
		isValid = func(string) bool { return true }
	}

	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: empty expression", FormulaFormatError)
	}

	if err := validateTokenSequence(tokens); err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	variables := make([]string, 0)
	canonical := strings.Builder{}

	for i := range tokens {
		token := &tokens[i]
		switch token.Type {
		case TokenVariable:
			normalized := normalize(token.Text)
			if !IsVariable(normalized) || !isValid(normalized) {
				return nil, newFormatError(*token, fmt.Sprintf("invalid variable `%s` (normalized `%s`)", token.Text, normalized))
			}
			token.Text = normalized
			if !seen[normalized] {
				seen[normalized] = true
				variables = append(variables, normalized)
			}
			canonical.WriteString(normalized)

		case TokenNumber:
			canonical.WriteString(FormatNumber(token.Number))

		default:
			canonical.WriteString(token.Text)
		}
	}

	slices.Sort(variables)

	return &Formula{
		tokens:    tokens,
		variables: variables,
		canonical: canonical.String(),
	}, nil
}

func validateTokenSequence(tokens []Token) error {
	first := tokens[0]
	if !isOperandStart(first.Type) {
		return newFormatError(first, "formula must start with a number, a variable or `(`")
	}

	last := tokens[len(tokens)-1]
	if !isOperandEnd(last.Type) {
		return newFormatError(last, "formula must end with a number, a variable or `)`")
	}

	depth := 0
	for i, token := range tokens {
		switch token.Type {
		case TokenUnrecognized:
			return newFormatError(token, "unrecognized token")
		case TokenLeftParen:
			depth++
		case TokenRightParen:
			depth--
			if depth < 0 {
				return newFormatError(token, "more closing than opening parentheses")
			}
		}

		if i+1 == len(tokens) {
			break
		}
		next := tokens[i+1]

		if (token.Type == TokenOperator || token.Type == TokenLeftParen) && !isOperandStart(next.Type) {
			return newFormatError(next, fmt.Sprintf("`%s` must be followed by a number, a variable or `(`", token.Text))
		}

		if isOperandEnd(token.Type) && next.Type != TokenOperator && next.Type != TokenRightParen {
			return newFormatError(next, fmt.Sprintf("`%s` must be followed by an operator or `)`", token.Text))
		}
	}

	if depth != 0 {
		return fmt.Errorf("%w: %d unclosed parentheses", FormulaFormatError, depth)
	}

	return nil
}

func isOperandStart(t TokenType) bool {
	return t == TokenNumber || t == TokenVariable || t == TokenLeftParen
}

func isOperandEnd(t TokenType) bool {
	return t == TokenNumber || t == TokenVariable || t == TokenRightParen
}

func newFormatError(token Token, reason string) error {
	return fmt.Errorf("%w: %s (token `%s` at position %d)", FormulaFormatError, reason, token.Text, token.Position)
}

// Evaluate computes the formula. Variables are resolved through lookup.
// Failures (division by zero, unresolvable variables) come back as
// EvaluationError; Evaluate never returns a Go error.
func (f *Formula) Evaluate(lookup contracts.VariableLookup) Value {
	e := evaluator{
		operands:  make([]float64, 0, len(f.tokens)/2+1),
		operators: make([]string, 0, len(f.tokens)/2+1),
	}

	for _, token := range f.tokens {
		switch token.Type {
		case TokenNumber:
			e.pushOperand(token.Number)

		case TokenVariable:
			if lookup == nil {
				return EvaluationError{Reason: fmt.Sprintf("undefined variable %s", token.Text)}
			}
			value, err := lookup.LookupVariable(token.Text)
			if err != nil {
				return EvaluationError{Reason: fmt.Sprintf("variable %s: %s", token.Text, err)}
			}
			e.pushOperand(value)

		case TokenOperator:
			if isAdditive(token.Text) && e.topIs(isAdditive) {
				e.reduce()
			}
			e.operators = append(e.operators, token.Text)

		case TokenLeftParen:
			e.operators = append(e.operators, token.Text)

		case TokenRightParen:
			if e.topIs(isAdditive) {
				e.reduce()
			}
			if e.topIs(isLeftParen) {
				e.operators = e.operators[:len(e.operators)-1]
			}
			if e.topIs(isMultiplicative) {
				e.reduce()
			}
		}

		if e.err != "" {
			return EvaluationError{Reason: e.err}
		}
	}

	if e.topIs(isAdditive) {
		e.reduce()
	}

	if e.err != "" {
		return EvaluationError{Reason: e.err}
	}
	if len(e.operands) != 1 || len(e.operators) != 0 {
		return EvaluationError{Reason: "malformed expression"}
	}
	return NumberValue(e.operands[0])
}

// GetVariables returns the distinct normalized variables in sorted order.
func (f *Formula) GetVariables() []string {
	return slices.Clone(f.variables)
}

// String returns the canonical text: no whitespace, normalized variables and
// numbers re-formatted after parsing.
func (f *Formula) String() string {
	return f.canonical
}

func (f *Formula) Equals(other *Formula) bool {
	if f == nil || other == nil {
		return f == other
	}
	return f.canonical == other.canonical
}

func (f *Formula) HashCode() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(f.canonical))
	return h.Sum64()
}

type evaluator struct {
	operands  []float64
	operators []string
	err       string
}

// pushOperand pushes value, applying a pending `*` or `/` right away.
func (e *evaluator) pushOperand(value float64) {
	e.operands = append(e.operands, value)
	if e.topIs(isMultiplicative) {
		e.reduce()
	}
}

func (e *evaluator) topIs(predicate func(string) bool) bool {
	return len(e.operators) > 0 && predicate(e.operators[len(e.operators)-1])
}

func (e *evaluator) reduce() {
	if e.err != "" {
		return
	}
	if len(e.operands) < 2 || len(e.operators) == 0 {
		e.err = "malformed expression"
		return
	}

	right := e.operands[len(e.operands)-1]
	left := e.operands[len(e.operands)-2]
	e.operands = e.operands[:len(e.operands)-2]
	operator := e.operators[len(e.operators)-1]
	e.operators = e.operators[:len(e.operators)-1]

	var result float64
	switch operator {
	case "+":
		result = left + right
	case "-":
		result = left - right
	case "*":
		result = left * right
	case "/":
		if right == 0 {
			e.err = "division by zero"
			return
		}
		result = left / right
	default:
		e.err = fmt.Sprintf("unexpected operator %s", operator)
		return
	}

	e.operands = append(e.operands, result)
}

func isAdditive(operator string) bool {
	return operator == "+" || operator == "-"
}

func isMultiplicative(operator string) bool {
	return operator == "*" || operator == "/"
}

func isLeftParen(operator string) bool {
	return operator == "("
}
