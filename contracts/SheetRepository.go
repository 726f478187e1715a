package contracts

import (
	"errors"
	"io"
)

type SheetRepository interface {
	// SetCell returns the edited cell first, followed by every recalculated cell.
	SetCell(sheetId string, cellId string, value string) ([]*Cell, error)
	GetCell(sheetId string, cellId string) (*Cell, error)
	GetCellList(sheetId string) (CellList, error)
	Evaluate(sheetId string, expression string, variables map[string]float64) (string, error)
	ExportSheet(sheetId string, w io.Writer) error
	ImportSheet(sheetId string, r io.Reader) (CellList, error)
	SaveSheet(sheetId string, filename string) error
	LoadSheet(sheetId string, filename string) (CellList, error)
}

var SheetNotFoundError = errors.New("sheet not found")
