package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Title:   "Progress report",
		Summary: []SummaryLine{{Label: "Level", Value: "BEGINNER"}},
		Headers: []string{"chapter", "name", "completion"},
		Rows: []map[string]string{
			{"chapter": "1", "name": "Al-Fatihah", "completion": "100.0"},
			{"chapter": "3", "name": "Ali 'Imran", "completion": "12.5"},
		},
	}
}

func TestCSVExporterRendersTableOnly(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.Equal(t, "chapter,name,completion\n1,Al-Fatihah,100.0\n3,Ali 'Imran,12.5\n", string(out))
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterProducesDocument(t *testing.T) {
	data := sampleDataset()
	for i := 0; i < 80; i++ {
		data.Rows = append(data.Rows, map[string]string{"chapter": "2", "name": "Al-Baqarah", "completion": "0.0"})
	}

	exporter := &PDFExporter{Widths: []float64{1, 3, 1}}
	out, err := exporter.Render(data)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestColumnWidthsFillPage(t *testing.T) {
	widths := (&PDFExporter{Widths: []float64{2}}).columnWidths(3)
	require.Len(t, widths, 3)
	assert.InDelta(t, 95, widths[0], 1e-9)
	assert.InDelta(t, 47.5, widths[1], 1e-9)
	assert.InDelta(t, pageWidth, widths[0]+widths[1]+widths[2], 1e-9)
}
