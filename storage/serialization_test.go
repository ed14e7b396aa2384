package storage

import (
	"testing"

	"github.com/poiesic/corpuskit/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalIndexRow(t *testing.T) {
	tests := []struct {
		name string
		row  *core.IndexRow
	}{
		{
			name: "minimal row",
			row:  &core.IndexRow{Source: "legi", RecordID: "legi:1"},
		},
		{
			name: "full row",
			row: &core.IndexRow{
				Source:     "bofip",
				RecordID:   "bofip:BOI-TVA-LIQ-10",
				Title:      "TVA liquidation",
				Date:       "2024-03-20",
				URL:        "https://example.org/BOI-TVA-LIQ-10",
				SourceFile: "bofip.tgz::BOI-TVA-LIQ-10/2024-03-20/document.html",
				RawIndex:   7,
				Excerpt:    "Taux réduit de TVA applicable aux opérations visées.",
			},
		},
		{
			name: "empty row",
			row:  &core.IndexRow{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalIndexRow(tt.row)
			require.NotNil(t, data)

			decoded, err := UnmarshalIndexRow(data)
			require.NoError(t, err)
			assert.Equal(t, tt.row, decoded)
		})
	}
}

func TestUnmarshalIndexRow_Truncated(t *testing.T) {
	row := &core.IndexRow{Source: "legi", RecordID: "legi:1", Title: "Titre"}
	data := MarshalIndexRow(row)

	_, err := UnmarshalIndexRow(data[:len(data)/2])
	assert.Error(t, err)
}

func TestIndexRowSkip(t *testing.T) {
	row := &core.IndexRow{Source: "legi", RecordID: "legi:1", RawIndex: 3, Excerpt: "x"}
	data := MarshalIndexRow(row)

	n, err := IndexRowMUS.Skip(data)
	require.NoError(t, err)
	assert.Equal(t, len(data), n)
}
