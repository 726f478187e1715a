package main

import (
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

type TokenType int

const (
	TokenLeftParen TokenType = iota
	TokenRightParen
	TokenOperator
	TokenVariable
	TokenNumber
	TokenUnrecognized
)

const (
	charLParen     = '('
	charRParen     = ')'
	charPlus       = '+'
	charMinus      = '-'
	charAsterisk   = '*'
	charSlash      = '/'
	charPeriod     = '.'
	charUnderscore = '_'
)

var tokenTypeNames = map[TokenType]string{
	TokenLeftParen:    "left parenthesis",
	TokenRightParen:   "right parenthesis",
	TokenOperator:     "operator",
	TokenVariable:     "variable",
	TokenNumber:       "number",
	TokenUnrecognized: "unrecognized",
}

func (t TokenType) String() string {
	return tokenTypeNames[t]
}

// Token is a single lexeme of a formula. Number holds the parsed value of
// TokenNumber tokens and is zero otherwise.
type Token struct {
	Type     TokenType
	Text     string
	Position int
	Number   float64
}

// Tokenize splits formula into tokens. Whitespace only separates tokens and
// never shows up in the output. Nothing is rejected here, characters outside
// of the grammar become TokenUnrecognized.
func Tokenize(formula string) []Token {
	tokens := make([]Token, 0, len(formula)/2+1)

	pos := 0
	for pos < len(formula) {
		r, width := utf8.DecodeRuneInString(formula[pos:])

		switch {
		case unicode.IsSpace(r):
			pos += width

		case r == charLParen:
			tokens = append(tokens, Token{Type: TokenLeftParen, Text: "(", Position: pos})
			pos += width

		case r == charRParen:
			tokens = append(tokens, Token{Type: TokenRightParen, Text: ")", Position: pos})
			pos += width

		case isOperatorChar(r):
			tokens = append(tokens, Token{Type: TokenOperator, Text: string(r), Position: pos})
			pos += width

		case isVariableStartChar(r):
			end := pos + width
			for end < len(formula) && isVariableChar(formula[end]) {
				end++
			}
			tokens = append(tokens, Token{Type: TokenVariable, Text: formula[pos:end], Position: pos})
			pos = end

		case isDigit(r) || r == charPeriod:
			end := scanNumber(formula, pos)
			if end == pos {
				// lone period
				tokens = append(tokens, Token{Type: TokenUnrecognized, Text: string(r), Position: pos})
				pos += width
				continue
			}

			text := formula[pos:end]
			number, err := strconv.ParseFloat(text, 64)
			if err != nil {
				// out of float64 range
				tokens = append(tokens, Token{Type: TokenUnrecognized, Text: text, Position: pos})
			} else {
				tokens = append(tokens, Token{Type: TokenNumber, Text: text, Position: pos, Number: number})
			}
			pos = end

		default:
			tokens = append(tokens, Token{Type: TokenUnrecognized, Text: string(r), Position: pos})
			pos += width
		}
	}

	return tokens
}

// scanNumber returns the end offset of the decimal literal starting at start,
// or start when there is none. Accepts `1`, `1.`, `.5`, `1.5` and an optional
// exponent which is only consumed when at least one digit follows it.
func scanNumber(s string, start int) int {
	pos := start
	intDigits := 0
	for pos < len(s) && isDigit(rune(s[pos])) {
		pos++
		intDigits++
	}

	fracDigits := 0
	if pos < len(s) && s[pos] == charPeriod {
		frac := pos + 1
		for frac < len(s) && isDigit(rune(s[frac])) {
			frac++
			fracDigits++
		}
		if intDigits > 0 || fracDigits > 0 {
			pos = frac
		}
	}

	if intDigits == 0 && fracDigits == 0 {
		return start
	}

	if pos < len(s) && (s[pos] == 'e' || s[pos] == 'E') {
		exp := pos + 1
		if exp < len(s) && (s[exp] == charPlus || s[exp] == charMinus) {
			exp++
		}
		expDigits := exp
		for expDigits < len(s) && isDigit(rune(s[expDigits])) {
			expDigits++
		}
		if expDigits > exp {
			pos = expDigits
		}
	}

	return pos
}

// IsVariable reports whether s as a whole matches the variable grammar:
// a letter or underscore followed by letters, underscores or digits.
func IsVariable(s string) bool {
	if s == "" {
		return false
	}

	r, width := utf8.DecodeRuneInString(s)
	if !isVariableStartChar(r) {
		return false
	}

	for i := width; i < len(s); i++ {
		if !isVariableChar(s[i]) {
			return false
		}
	}
	return true
}

// ParseNumber parses cell content the way the lexer parses numeric literals,
// additionally allowing a leading sign and surrounding whitespace. NaN,
// infinities and hex literals are not numbers.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	digits := s
	if digits[0] == charPlus || digits[0] == charMinus {
		digits = digits[1:]
	}
	if digits == "" || scanNumber(digits, 0) != len(digits) {
		return 0, false
	}

	number, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(number, 0) || math.IsNaN(number) {
		return 0, false
	}
	return number, true
}

func FormatNumber(number float64) string {
	return strconv.FormatFloat(number, 'f', -1, 64)
}

func isOperatorChar(r rune) bool {
	return r == charPlus || r == charMinus || r == charAsterisk || r == charSlash
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isVariableStartChar(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == charUnderscore
}

func isVariableChar(c byte) bool {
	return isVariableStartChar(rune(c)) || isDigit(rune(c))
}
