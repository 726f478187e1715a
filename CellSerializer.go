package main

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var SerializerError = errors.New("invalid serialized data")

// cellRecordFormat prefixes every stored record, so the layout can change
// without misreading older databases.
const cellRecordFormat byte = 1

const cellRecordHeaderSize = 3

// CellBinarySerializer packs the client's cell id together with the raw cell
// contents: format byte, uint16 id length, id, contents.
type CellBinarySerializer struct {
}

func NewCellBinarySerializer() *CellBinarySerializer {
	return &CellBinarySerializer{}
}

func (s *CellBinarySerializer) Marshal(cellId string, contents string) []byte {
	serializedData := make([]byte, 0, cellRecordHeaderSize+len(cellId)+len(contents))

	serializedData = append(serializedData, cellRecordFormat)
	serializedData = binary.LittleEndian.AppendUint16(serializedData, uint16(len(cellId)))
	serializedData = append(serializedData, cellId...)
	serializedData = append(serializedData, contents...)
	return serializedData
}

func (s *CellBinarySerializer) Unmarshal(data []byte) (cellId string, contents string, err error) {
	if len(data) < cellRecordHeaderSize {
		return "", "", fmt.Errorf("%w: should be at least %d bytes (data: %v)", SerializerError, cellRecordHeaderSize, string(data))
	}

	if data[0] != cellRecordFormat {
		return "", "", fmt.Errorf("%w: unknown record format %d", SerializerError, data[0])
	}

	idLength := int(binary.LittleEndian.Uint16(data[1:]))
	if len(data) < cellRecordHeaderSize+idLength {
		return "", "", fmt.Errorf("%w: id size is less than bytes amount (idSize: %d; data: %v)", SerializerError, idLength, string(data))
	}

	cellId = string(data[cellRecordHeaderSize : cellRecordHeaderSize+idLength])
	contents = string(data[cellRecordHeaderSize+idLength:])
	return
}
