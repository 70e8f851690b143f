package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"

	"github.com/ericoliveiras/shopeasy/internal/model"
)

func TestWriteProducts(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)
	products := []model.Product{
		{ID: 1, Name: "Caneca", Price: decimal.RequireFromString("25.5"), Stock: 4, ImageFile: "uploads/c.png", CreatedAt: now, UpdatedAt: now},
		{ID: 2, Name: "Boné", Price: decimal.RequireFromString("40"), Stock: 0, ImageURL: "https://cdn.example.com/b.png", CreatedAt: now, UpdatedAt: now},
	}

	var buf bytes.Buffer
	err := WriteProducts(&buf, products, func(p model.Product) string {
		if p.ImageFile != "" {
			return "http://loja.local/" + p.ImageFile
		}
		return p.ImageURL
	})
	require.NoError(t, err)

	file, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	sheet, ok := file.Sheet[SheetName]
	require.True(t, ok)
	require.Len(t, sheet.Rows, 3)

	assert.Equal(t, "Nome", sheet.Rows[0].Cells[1].String())
	assert.Equal(t, "Caneca", sheet.Rows[1].Cells[1].String())
	assert.Equal(t, "25.50", sheet.Rows[1].Cells[3].String())
	assert.Equal(t, "http://loja.local/uploads/c.png", sheet.Rows[1].Cells[5].String())
	assert.Equal(t, "https://cdn.example.com/b.png", sheet.Rows[2].Cells[5].String())
	assert.Equal(t, "2024-05-01 10:30:00", sheet.Rows[2].Cells[6].String())
}
