package contracts

import "errors"

type Cell struct {
	CanonicalKey string `json:"id"`
	Value        string `json:"value"`
	Result       string `json:"result"`
}

// CellList is keyed by the cell id as it was written by the client.
type CellList map[string]*Cell

var CellNotFoundError = errors.New("cell not found")
