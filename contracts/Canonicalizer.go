package contracts

type Canonicalizer interface {
	Canonicalize(s string) string
	IsValid(s string) bool
}
