package main

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"spreadsheetEngine/contracts"
	"strings"
)

const DefaultVersion = "default"

var InvalidNameError = errors.New("invalid cell name")

type cell struct {
	content Content
	value   Value
}

// Spreadsheet maps cell names to contents and cached values and keeps the
// values up to date when contents change. It is not safe for concurrent use.
type Spreadsheet struct {
	cells     map[string]*cell
	graph     *DependencyGraph
	normalize contracts.Normalizer
	isValid   contracts.Validator
	version   string
	changed   bool
}

func NewSpreadsheet(isValid contracts.Validator, normalize contracts.Normalizer, version string) *Spreadsheet {
	if isValid == nil {
		isValid = func(string) bool { return true }
	}
	if normalize == nil {
		normalize = func(name string) string { return name }
	}

	return &Spreadsheet{
		cells:     map[string]*cell{},
		graph:     NewDependencyGraph(),
		normalize: normalize,
		isValid:   isValid,
		version:   version,
	}
}

func NewDefaultSpreadsheet() *Spreadsheet {
	return NewSpreadsheet(nil, nil, DefaultVersion)
}

func (s *Spreadsheet) Version() string {
	return s.version
}

// Changed reports whether the spreadsheet was modified since it was created,
// loaded or last saved.
func (s *Spreadsheet) Changed() bool {
	return s.changed
}

// GetNamesOfAllNonemptyCells returns the sorted names of all cells with content.
func (s *Spreadsheet) GetNamesOfAllNonemptyCells() []string {
	return slices.Sorted(maps.Keys(s.cells))
}

func (s *Spreadsheet) GetCellContents(name string) (Content, error) {
	normalized, err := s.normalizeName(name)
	if err != nil {
		return nil, err
	}

	if c, ok := s.cells[normalized]; ok {
		return c.content, nil
	}
	return TextContent(""), nil
}

func (s *Spreadsheet) GetCellValue(name string) (Value, error) {
	normalized, err := s.normalizeName(name)
	if err != nil {
		return nil, err
	}

	if c, ok := s.cells[normalized]; ok {
		return c.value, nil
	}
	return TextValue(""), nil
}

// GetDirectDependents returns the cells whose formulas reference name directly.
func (s *Spreadsheet) GetDirectDependents(name string) ([]string, error) {
	normalized, err := s.normalizeName(name)
	if err != nil {
		return nil, err
	}
	return s.graph.GetDependents(normalized), nil
}

// LookupVariable resolves a normalized cell name to its cached numeric value.
func (s *Spreadsheet) LookupVariable(name string) (float64, error) {
	c, ok := s.cells[name]
	if !ok {
		return 0, fmt.Errorf("%w: cell %s is empty", UndefinedVariableError, name)
	}

	switch v := c.value.(type) {
	case NumberValue:
		return float64(v), nil
	case EvaluationError:
		return 0, fmt.Errorf("cell %s has an error (%s)", name, v.Reason)
	default:
		return 0, fmt.Errorf("cell %s is not a number", name)
	}
}

// SetContentsOfCell parses content, stores it in the cell and recalculates
// every cell that depends on it, directly or indirectly.
//
// content that parses as a number becomes NumberContent, content starting with
// "=" becomes a Formula of the remainder, anything else is TextContent and the
// empty string empties the cell.
//
// The returned list holds the normalized name first, followed by every
// recalculated cell in evaluation order. On error nothing is modified.
func (s *Spreadsheet) SetContentsOfCell(name string, content string) ([]string, error) {
	normalized, err := s.normalizeName(name)
	if err != nil {
		return nil, err
	}

	newContent, err := s.parseContent(content)
	if err != nil {
		return nil, fmt.Errorf("cell %s: %w", normalized, err)
	}

	var dependees []string
	if formula, ok := newContent.(FormulaContent); ok {
		dependees = formula.Formula.GetVariables()
	}

	candidate := s.graph.WithDependees(normalized, dependees)
	order, err := candidate.GetCellsToRecalculate(normalized)
	if err != nil {
		return nil, fmt.Errorf("cell %s: %w", normalized, err)
	}

	candidate.Commit()
	if text, ok := newContent.(TextContent); ok && text == "" {
		delete(s.cells, normalized)
	} else {
		s.cells[normalized] = &cell{content: newContent}
	}
	s.changed = true

	s.recalculate(order)

	return order, nil
}

func (s *Spreadsheet) parseContent(content string) (Content, error) {
	if number, ok := ParseNumber(content); ok {
		return NumberContent(number), nil
	}

	if strings.HasPrefix(content, FormulaPrefix) {
		formula, err := NewFormula(strings.TrimPrefix(content, FormulaPrefix), s.normalize, s.isValid)
		if err != nil {
			return nil, err
		}
		return FormulaContent{Formula: formula}, nil
	}

	return TextContent(content), nil
}

// recalculate evaluates order strictly in sequence: each formula reads the
// values written by its predecessors.
func (s *Spreadsheet) recalculate(order []string) {
	for _, name := range order {
		c, ok := s.cells[name]
		if !ok {
			continue
		}

		if formula, isFormula := c.content.(FormulaContent); isFormula {
			c.value = formula.Formula.Evaluate(s)
		} else {
			c.value = valueOf(c.content)
		}
	}
}

func (s *Spreadsheet) normalizeName(name string) (string, error) {
	if !IsVariable(name) {
		return "", fmt.Errorf("%w: `%s`", InvalidNameError, name)
	}

	normalized := s.normalize(name)
	if !IsVariable(normalized) || !s.isValid(normalized) {
		return "", fmt.Errorf("%w: `%s` (normalized `%s`)", InvalidNameError, name, normalized)
	}

	return normalized, nil
}
