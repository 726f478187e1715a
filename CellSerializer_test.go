package main

import (
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestCellBinarySerializer_Marshal(t *testing.T) {
	serializer := &CellBinarySerializer{}
	serialized := serializer.Marshal("cell1", "=A1+1")

	assert.Equal(t, []byte{cellRecordFormat, 5, 0, 'c', 'e', 'l', 'l', '1', '=', 'A', '1', '+', '1'}, serialized)
}

func TestCellBinarySerializer_Unmarshal(t *testing.T) {
	serializer := &CellBinarySerializer{}

	t.Run("valid_data", func(t *testing.T) {
		assertMarshalAndUnmarshal := func(expectedCellId string, expectedContents string) {
			serialized := serializer.Marshal(expectedCellId, expectedContents)
			actualCellId, actualContents, err := serializer.Unmarshal(serialized)

			assert.NoError(t, err)
			assert.Equal(t, expectedCellId, actualCellId)
			assert.Equal(t, expectedContents, actualContents)
		}

		assertMarshalAndUnmarshal("a1", "1")
		assertMarshalAndUnmarshal("B12", "=(a1 + 2) / 3")
		assertMarshalAndUnmarshal("C3", "")
		assertMarshalAndUnmarshal("D4", "text with unicode ✓ and <xml> & symbols")
	})

	t.Run("empty_data", func(t *testing.T) {
		cellId, contents, err := serializer.Unmarshal([]byte{})

		assert.ErrorIs(t, err, SerializerError)
		assert.Equal(t, "", cellId)
		assert.Equal(t, "", contents)
	})

	t.Run("unknown_format", func(t *testing.T) {
		_, _, err := serializer.Unmarshal([]byte{9, 1, 0, 'A'})

		assert.ErrorIs(t, err, SerializerError)
		assert.Contains(t, err.Error(), "unknown record format 9")
	})

	t.Run("truncated_id", func(t *testing.T) {
		cellId, contents, err := serializer.Unmarshal([]byte{cellRecordFormat, 10, 0, 'A', '1'})

		assert.ErrorIs(t, err, SerializerError)
		assert.Equal(t, "", cellId)
		assert.Equal(t, "", contents)
	})
}
