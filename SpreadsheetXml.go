package main

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"spreadsheetEngine/contracts"
)

var ReadWriteError = errors.New("spreadsheet read/write error")

const spreadsheetElement = "spreadsheet"

type spreadsheetDocument struct {
	XMLName xml.Name     `xml:"spreadsheet"`
	Version string       `xml:"version,attr"`
	Cells   []cellRecord `xml:"cell"`
}

type cellRecord struct {
	Name     string `xml:"name"`
	Contents string `xml:"contents"`
}

// WriteXML writes the document form of the spreadsheet: one <cell> per
// non-empty cell, sorted by name. Formulas are written with the "=" prefix.
func (s *Spreadsheet) WriteXML(w io.Writer) error {
	document := spreadsheetDocument{
		Version: s.version,
		Cells:   make([]cellRecord, 0, len(s.cells)),
	}

	for _, name := range s.GetNamesOfAllNonemptyCells() {
		document.Cells = append(document.Cells, cellRecord{
			Name:     name,
			Contents: s.cells[name].content.Raw(),
		})
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("%w: %w", ReadWriteError, err)
	}

	encoder := xml.NewEncoder(w)
	encoder.Indent("", "  ")
	if err := encoder.Encode(document); err != nil {
		return fmt.Errorf("%w: %w", ReadWriteError, err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("%w: %w", ReadWriteError, err)
	}

	_, err := io.WriteString(w, "\n")
	if err != nil {
		return fmt.Errorf("%w: %w", ReadWriteError, err)
	}
	return nil
}

// GetXML returns the document form of the spreadsheet as a string.
func (s *Spreadsheet) GetXML() (string, error) {
	buffer := bytes.Buffer{}
	if err := s.WriteXML(&buffer); err != nil {
		return "", err
	}
	return buffer.String(), nil
}

// Save writes the spreadsheet to filename and clears the Changed flag.
func (s *Spreadsheet) Save(filename string) error {
	buffer := bytes.Buffer{}
	if err := s.WriteXML(&buffer); err != nil {
		return err
	}

	if err := os.WriteFile(filename, buffer.Bytes(), 0644); err != nil {
		return fmt.Errorf("%w: save %s: %w", ReadWriteError, filename, err)
	}

	s.changed = false
	return nil
}

// GetSavedVersion returns the version attribute of the document stored in filename.
func GetSavedVersion(filename string) (string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ReadWriteError, err)
	}
	defer file.Close()

	decoder := xml.NewDecoder(file)
	for {
		token, err := decoder.Token()
		if err != nil {
			return "", fmt.Errorf("%w: %s: no <%s> element: %w", ReadWriteError, filename, spreadsheetElement, err)
		}

		start, ok := token.(xml.StartElement)
		if !ok {
			continue
		}

		if start.Name.Local != spreadsheetElement {
			return "", fmt.Errorf("%w: %s: unexpected root element <%s>", ReadWriteError, filename, start.Name.Local)
		}

		for _, attr := range start.Attr {
			if attr.Name.Local == "version" {
				return attr.Value, nil
			}
		}
		return "", fmt.Errorf("%w: %s: missing version attribute", ReadWriteError, filename)
	}
}

// Load reads a spreadsheet saved by Save. The stored version must equal
// expectedVersion; every cell is replayed through SetContentsOfCell.
func Load(filename string, isValid contracts.Validator, normalize contracts.Normalizer, expectedVersion string) (*Spreadsheet, error) {
	version, err := GetSavedVersion(filename)
	if err != nil {
		return nil, err
	}
	if version != expectedVersion {
		return nil, fmt.Errorf("%w: %s: version `%s` does not match expected `%s`", ReadWriteError, filename, version, expectedVersion)
	}

	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ReadWriteError, err)
	}
	defer file.Close()

	sheet, err := ReadXML(file, isValid, normalize, expectedVersion)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return sheet, nil
}

// ReadXML is the stream form of Load.
func ReadXML(r io.Reader, isValid contracts.Validator, normalize contracts.Normalizer, expectedVersion string) (*Spreadsheet, error) {
	document := spreadsheetDocument{}
	if err := xml.NewDecoder(r).Decode(&document); err != nil {
		return nil, fmt.Errorf("%w: %w", ReadWriteError, err)
	}

	if document.Version != expectedVersion {
		return nil, fmt.Errorf("%w: version `%s` does not match expected `%s`", ReadWriteError, document.Version, expectedVersion)
	}

	sheet := NewSpreadsheet(isValid, normalize, expectedVersion)
	for _, record := range document.Cells {
		if _, err := sheet.SetContentsOfCell(record.Name, record.Contents); err != nil {
			return nil, fmt.Errorf("%w: %w", ReadWriteError, err)
		}
	}

	sheet.changed = false
	return sheet, nil
}
