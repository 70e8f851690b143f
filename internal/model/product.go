package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product representa um produto do catálogo.
type Product struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Name        string          `gorm:"not null;size:150" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"price"`
	Stock       int             `gorm:"not null;default:0" json:"stock"`
	ImageFile   string          `gorm:"size:255" json:"image_file,omitempty"` // Caminho relativo do upload (ex: uploads/abc.png)
	ImageURL    string          `gorm:"size:500" json:"image_url,omitempty"`  // URL externa, usada quando não há upload
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"` // Para "soft delete"
}

// IsDeleted informa se o produto foi excluído logicamente.
func (p Product) IsDeleted() bool {
	return p.DeletedAt.Valid
}
