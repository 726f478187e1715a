package contracts

// Normalizer canonicalizes a cell name or formula variable before it is stored or compared.
type Normalizer func(name string) string

// Validator applies host specific acceptance rules to an already normalized name.
type Validator func(normalizedName string) bool

// VariableLookup resolves a normalized variable to its numeric value.
// An error means the variable has no numeric value.
type VariableLookup interface {
	LookupVariable(name string) (float64, error)
}

// VariableLookupFunc adapts a plain function to VariableLookup.
type VariableLookupFunc func(name string) (float64, error)

func (f VariableLookupFunc) LookupVariable(name string) (float64, error) {
	return f(name)
}
