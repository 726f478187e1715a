package main

import (
	"errors"
	"fmt"
	"spreadsheetEngine/contracts"
)

var UndefinedVariableError = errors.New("undefined variable")

type MapVariableLookup map[string]float64

func NewMapVariableLookup(values map[string]float64) MapVariableLookup {
	return values
}

func (m MapVariableLookup) LookupVariable(name string) (float64, error) {
	if value, ok := m[name]; ok {
		return value, nil
	}
	return 0, fmt.Errorf("%w: %s", UndefinedVariableError, name)
}

// NewVariableLookupChain asks first, and second only for variables first does
// not define. Errors other than UndefinedVariableError from first are final.
func NewVariableLookupChain(first contracts.VariableLookup, second contracts.VariableLookup) contracts.VariableLookup {
	if second == nil {
		return first
	}

	if first == nil {
		return second
	}

	return contracts.VariableLookupFunc(func(name string) (float64, error) {
		value, err := first.LookupVariable(name)
		if err == nil || !errors.Is(err, UndefinedVariableError) {
			return value, err
		}
		return second.LookupVariable(name)
	})
}
