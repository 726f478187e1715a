package main

import (
	"regexp"
	"strings"
)

// Canonicalizer is the host side naming policy handed to the engine:
// names are case-insensitive and must look like spreadsheet addresses (A1, AB12).
type Canonicalizer struct {
	cellNameRegex *regexp.Regexp
}

func NewCanonicalizer() *Canonicalizer {
	return &Canonicalizer{
		cellNameRegex: regexp.MustCompile(`^[A-Z]+[1-9][0-9]*$`),
	}
}

func (c *Canonicalizer) Canonicalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// IsValid expects a canonicalized name.
func (c *Canonicalizer) IsValid(s string) bool {
	return c.cellNameRegex.MatchString(s)
}
