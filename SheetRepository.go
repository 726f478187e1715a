package main

import (
	"bytes"
	"errors"
	"fmt"
	"go.etcd.io/bbolt"
	"io"
	"log/slog"
	"spreadsheetEngine/contracts"
	"strings"
	"sync"
)

// metaKeyPrefix cannot start a canonical cell id, so meta records share the
// sheet bucket with cells.
const metaKeyPrefix = "#"

var versionKey = []byte(metaKeyPrefix + "version")

var SheetVersionError = errors.New("sheet version mismatch")

// SheetRepository keeps one Spreadsheet engine per sheet in memory and the
// raw cell values in bbolt: a bucket per sheet, a record per non-empty cell.
// Engines are built lazily by replaying the stored records.
type SheetRepository struct {
	db                *bbolt.DB
	serializer        contracts.CellSerializer
	canonicalizer     contracts.Canonicalizer
	webhookDispatcher contracts.WebhookDispatcher
	version           string
	logger            *slog.Logger

	// mutex serializes every access to sheets and the engines in it
	mutex  sync.Mutex
	sheets map[string]*Spreadsheet
}

func NewSheetRepository(
	db *bbolt.DB, serializer contracts.CellSerializer, canonicalizer contracts.Canonicalizer,
	webhookDispatcher contracts.WebhookDispatcher, version string,
) *SheetRepository {
	return &SheetRepository{
		db:                db,
		serializer:        serializer,
		canonicalizer:     canonicalizer,
		webhookDispatcher: webhookDispatcher,
		version:           version,
		logger:            slog.Default().With(slog.String("component", "sheet_repository")),
		sheets:            map[string]*Spreadsheet{},
	}
}

func (s *SheetRepository) SetCell(sheetId string, cellId string, value string) ([]*contracts.Cell, error) {
	sheetId = strings.ToLower(sheetId)
	sheetIdByte := []byte(sheetId)

	s.mutex.Lock()
	defer s.mutex.Unlock()

	sheet, err := s.getSheet(sheetId, true)
	if err != nil {
		return nil, err
	}

	order, err := sheet.SetContentsOfCell(cellId, value)
	if err != nil {
		return nil, err
	}
	s.sheets[sheetId] = sheet

	canonicalKey := []byte(order[0])
	cells := make([]*contracts.Cell, 0, len(order))

	err = s.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(sheetIdByte)
		if err != nil {
			return err
		}

		if err = s.putVersion(bucket); err != nil {
			return err
		}

		if value == "" {
			err = bucket.Delete(canonicalKey)
		} else {
			err = bucket.Put(canonicalKey, s.serializer.Marshal(cellId, value))
		}
		if err != nil {
			return err
		}

		for _, name := range order {
			cell, err := s.makeCell(bucket, sheet, name)
			if err != nil {
				return err
			}
			cells = append(cells, cell)
		}
		return nil
	})

	if err != nil {
		// the engine is ahead of the database now, rebuild it on next access
		delete(s.sheets, sheetId)
		s.logger.Error("persist cell",
			slog.String("sheet_id", sheetId),
			slog.String("cell_id", cellId),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	s.logger.Debug("cell recalculated",
		slog.String("sheet_id", sheetId),
		slog.String("cell_id", order[0]),
		slog.Int("updated", len(order)),
	)

	s.webhookDispatcher.Notify(sheetId, cells)

	return cells, nil
}

func (s *SheetRepository) GetCell(sheetId string, cellId string) (cell *contracts.Cell, err error) {
	sheetId = strings.ToLower(sheetId)
	canonicalKey := s.canonicalizer.Canonicalize(cellId)

	s.mutex.Lock()
	defer s.mutex.Unlock()

	sheet, err := s.getSheet(sheetId, false)
	if err != nil {
		return nil, err
	}

	err = s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(sheetId))
		if bucket == nil {
			return fmt.Errorf("%s: %w", sheetId, contracts.SheetNotFoundError)
		}

		if bucket.Get([]byte(canonicalKey)) == nil {
			return fmt.Errorf("%s: %w", cellId, contracts.CellNotFoundError)
		}

		cell, err = s.makeCell(bucket, sheet, canonicalKey)
		return err
	})

	return
}

func (s *SheetRepository) GetCellList(sheetId string) (contracts.CellList, error) {
	sheetId = strings.ToLower(sheetId)

	s.mutex.Lock()
	defer s.mutex.Unlock()

	sheet, err := s.getSheet(sheetId, false)
	if err != nil {
		return contracts.CellList{}, err
	}

	cellList := contracts.CellList{}
	err = s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(sheetId))
		if bucket == nil {
			return fmt.Errorf("%s: %w", sheetId, contracts.SheetNotFoundError)
		}

		return s.forEachCell(bucket, func(canonicalKey string, cellId string, value string) error {
			result, err := sheet.GetCellValue(canonicalKey)
			if err != nil {
				return err
			}

			cellList[cellId] = &contracts.Cell{
				CanonicalKey: canonicalKey,
				Value:        value,
				Result:       result.String(),
			}
			return nil
		})
	})

	return cellList, err
}

// Evaluate computes an ad-hoc expression against a sheet. variables take
// precedence over cells; a missing sheet behaves like an empty one.
func (s *SheetRepository) Evaluate(sheetId string, expression string, variables map[string]float64) (string, error) {
	sheetId = strings.ToLower(sheetId)

	formula, err := NewFormula(expression, nil, nil)
	if err != nil {
		return "", err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	sheet, err := s.getSheet(sheetId, true)
	if err != nil {
		return "", err
	}

	cells := contracts.VariableLookupFunc(func(name string) (float64, error) {
		return sheet.LookupVariable(s.canonicalizer.Canonicalize(name))
	})

	return formula.Evaluate(NewVariableLookupChain(NewMapVariableLookup(variables), cells)).String(), nil
}

// ExportSheet writes the XML document of the sheet.
func (s *SheetRepository) ExportSheet(sheetId string, w io.Writer) error {
	sheetId = strings.ToLower(sheetId)

	s.mutex.Lock()
	defer s.mutex.Unlock()

	sheet, err := s.getSheet(sheetId, false)
	if err != nil {
		return err
	}

	return sheet.WriteXML(w)
}

// ImportSheet replaces the whole sheet with the XML document read from r.
func (s *SheetRepository) ImportSheet(sheetId string, r io.Reader) (contracts.CellList, error) {
	sheet, err := ReadXML(r, s.canonicalizer.IsValid, s.canonicalizer.Canonicalize, s.version)
	if err != nil {
		return nil, err
	}

	return s.replaceSheet(strings.ToLower(sheetId), sheet)
}

// SaveSheet writes the XML document of the sheet to filename.
func (s *SheetRepository) SaveSheet(sheetId string, filename string) error {
	sheetId = strings.ToLower(sheetId)

	s.mutex.Lock()
	defer s.mutex.Unlock()

	sheet, err := s.getSheet(sheetId, false)
	if err != nil {
		return err
	}

	return sheet.Save(filename)
}

// LoadSheet replaces the whole sheet with the XML document stored in filename.
func (s *SheetRepository) LoadSheet(sheetId string, filename string) (contracts.CellList, error) {
	sheet, err := Load(filename, s.canonicalizer.IsValid, s.canonicalizer.Canonicalize, s.version)
	if err != nil {
		return nil, err
	}

	return s.replaceSheet(strings.ToLower(sheetId), sheet)
}

func (s *SheetRepository) replaceSheet(sheetId string, sheet *Spreadsheet) (contracts.CellList, error) {
	sheetIdByte := []byte(sheetId)
	names := sheet.GetNamesOfAllNonemptyCells()

	cellList := contracts.CellList{}
	cells := make([]*contracts.Cell, 0, len(names))

	s.mutex.Lock()
	defer s.mutex.Unlock()

	err := s.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket(sheetIdByte) != nil {
			if err := tx.DeleteBucket(sheetIdByte); err != nil {
				return err
			}
		}

		bucket, err := tx.CreateBucket(sheetIdByte)
		if err != nil {
			return err
		}

		if err = s.putVersion(bucket); err != nil {
			return err
		}

		for _, name := range names {
			content, _ := sheet.GetCellContents(name)
			if err = bucket.Put([]byte(name), s.serializer.Marshal(name, content.Raw())); err != nil {
				return err
			}

			cell, err := s.makeCell(bucket, sheet, name)
			if err != nil {
				return err
			}
			cellList[name] = cell
			cells = append(cells, cell)
		}

		return nil
	})

	if err != nil {
		s.logger.Error("replace sheet", slog.String("sheet_id", sheetId), slog.String("error", err.Error()))
		return nil, err
	}

	s.sheets[sheetId] = sheet
	s.logger.Info("sheet replaced", slog.String("sheet_id", sheetId), slog.Int("cells", len(names)))
	s.webhookDispatcher.Notify(sheetId, cells)

	return cellList, nil
}

// getSheet returns the cached engine of sheetId or builds it from the
// stored records. A fresh engine is returned for an unknown sheet when create
// is set; it is cached by the caller once something is persisted.
func (s *SheetRepository) getSheet(sheetId string, create bool) (*Spreadsheet, error) {
	if sheet, ok := s.sheets[sheetId]; ok {
		return sheet, nil
	}

	var sheet *Spreadsheet
	stored := false
	err := s.db.View(func(tx *bbolt.Tx) (err error) {
		bucket := tx.Bucket([]byte(sheetId))
		if bucket == nil {
			if !create {
				return fmt.Errorf("%s: %w", sheetId, contracts.SheetNotFoundError)
			}

			sheet = s.newSpreadsheet()
			return nil
		}

		stored = true
		sheet, err = s.readSheet(sheetId, bucket)
		return err
	})

	if err != nil {
		return nil, err
	}

	if stored {
		s.sheets[sheetId] = sheet
	}

	return sheet, nil
}

func (s *SheetRepository) readSheet(sheetId string, bucket *bbolt.Bucket) (*Spreadsheet, error) {
	if version := string(bucket.Get(versionKey)); version != "" && version != s.version {
		return nil, fmt.Errorf("%w: sheet %s has version `%s`, expected `%s`", SheetVersionError, sheetId, version, s.version)
	}

	sheet := s.newSpreadsheet()
	err := s.forEachCell(bucket, func(canonicalKey string, cellId string, value string) error {
		if _, err := sheet.SetContentsOfCell(canonicalKey, value); err != nil {
			return fmt.Errorf("sheet %s: %w", sheetId, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sheet.changed = false
	s.logger.Info("sheet loaded",
		slog.String("sheet_id", sheetId),
		slog.Int("cells", len(sheet.GetNamesOfAllNonemptyCells())),
	)

	return sheet, nil
}

func (s *SheetRepository) newSpreadsheet() *Spreadsheet {
	return NewSpreadsheet(s.canonicalizer.IsValid, s.canonicalizer.Canonicalize, s.version)
}

func (s *SheetRepository) putVersion(bucket *bbolt.Bucket) error {
	if bytes.Equal(bucket.Get(versionKey), []byte(s.version)) {
		return nil
	}
	return bucket.Put(versionKey, []byte(s.version))
}

func (s *SheetRepository) forEachCell(bucket *bbolt.Bucket, fn func(canonicalKey string, cellId string, value string) error) error {
	c := bucket.Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		if bytes.HasPrefix(k, []byte(metaKeyPrefix)) {
			continue
		}

		cellId, value, err := s.serializer.Unmarshal(v)
		if err != nil {
			return err
		}

		if err = fn(string(k), cellId, value); err != nil {
			return err
		}
	}
	return nil
}

func (s *SheetRepository) makeCell(bucket *bbolt.Bucket, sheet *Spreadsheet, canonicalKey string) (*contracts.Cell, error) {
	cell := &contracts.Cell{CanonicalKey: canonicalKey}

	if record := bucket.Get([]byte(canonicalKey)); record != nil {
		var err error
		if _, cell.Value, err = s.serializer.Unmarshal(record); err != nil {
			return nil, err
		}
	}

	result, err := sheet.GetCellValue(canonicalKey)
	if err != nil {
		return nil, err
	}
	cell.Result = result.String()

	return cell, nil
}
