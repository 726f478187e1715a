package main

// Content is what the user put into a cell. Implementations:
// NumberContent, TextContent and FormulaContent. Empty cells hold TextContent("").
type Content interface {
	isContent()
	// Raw returns the text which, passed to SetContentsOfCell, yields the same content.
	Raw() string
}

type NumberContent float64

type TextContent string

type FormulaContent struct {
	Formula *Formula
}

func (NumberContent) isContent()  {}
func (TextContent) isContent()    {}
func (FormulaContent) isContent() {}

func (c NumberContent) Raw() string  { return FormatNumber(float64(c)) }
func (c TextContent) Raw() string    { return string(c) }
func (c FormulaContent) Raw() string { return FormulaPrefix + c.Formula.String() }

// Value is what a cell evaluates to. Implementations: NumberValue, TextValue
// and EvaluationError.
type Value interface {
	isValue()
	String() string
}

type NumberValue float64

type TextValue string

// EvaluationError is a formula result, not a Go error: it is stored as the
// value of the cell and propagates through dependent formulas.
type EvaluationError struct {
	Reason string
}

const evaluationErrorPrefix = "ERROR: "

func (NumberValue) isValue()     {}
func (TextValue) isValue()       {}
func (EvaluationError) isValue() {}

func (v NumberValue) String() string     { return FormatNumber(float64(v)) }
func (v TextValue) String() string       { return string(v) }
func (v EvaluationError) String() string { return evaluationErrorPrefix + v.Reason }

// valueOf mirrors non-formula content. Formula content has no static value.
func valueOf(content Content) Value {
	switch c := content.(type) {
	case NumberContent:
		return NumberValue(c)
	case TextContent:
		return TextValue(c)
	default:
		return nil
	}
}
