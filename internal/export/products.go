// Package export gera a planilha do catálogo.
package export

import (
	"fmt"
	"io"

	"github.com/tealeg/xlsx"

	"github.com/ericoliveiras/shopeasy/internal/model"
)

const (
	SheetName   = "Produtos"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var productHeaders = []string{
	"ID", "Nome", "Descrição", "Preço", "Estoque", "Imagem", "Criado em", "Atualizado em",
}

// WriteProducts escreve um .xlsx com uma linha por produto.
// imageURL resolve a coluna de imagem; pode ser nil.
func WriteProducts(w io.Writer, products []model.Product, imageURL func(model.Product) string) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet(SheetName)
	if err != nil {
		return fmt.Errorf("falha ao criar planilha: %w", err)
	}

	header := sheet.AddRow()
	for _, h := range productHeaders {
		header.AddCell().SetValue(h)
	}

	for _, p := range products {
		image := p.ImageURL
		if imageURL != nil {
			image = imageURL(p)
		}
		row := sheet.AddRow()
		row.AddCell().SetValue(p.ID)
		row.AddCell().SetValue(p.Name)
		row.AddCell().SetValue(p.Description)
		row.AddCell().SetValue(p.Price.StringFixed(2))
		row.AddCell().SetValue(p.Stock)
		row.AddCell().SetValue(image)
		row.AddCell().SetValue(p.CreatedAt.Format("2006-01-02 15:04:05"))
		row.AddCell().SetValue(p.UpdatedAt.Format("2006-01-02 15:04:05"))
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("falha ao gravar planilha: %w", err)
	}
	return nil
}
