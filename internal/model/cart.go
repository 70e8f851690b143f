package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Cart é o carrinho ativo de um usuário. Existe no máximo um por usuário.
type Cart struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	UserID     uint            `gorm:"uniqueIndex;not null" json:"user_id"`
	TotalPrice decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"total_price"` // Derivado dos itens, recalculado a cada alteração
	Items      []CartItem      `gorm:"foreignKey:CartID" json:"items"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// CartItem é um produto dentro do carrinho. Quantity é sempre >= 1.
type CartItem struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CartID    uint           `gorm:"index;not null" json:"cart_id"`
	ProductID uint           `gorm:"index;not null" json:"product_id"`
	Product   Product        `gorm:"foreignKey:ProductID" json:"product"`
	Quantity  int            `gorm:"not null" json:"quantity"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Subtotal é preço do produto x quantidade.
func (i CartItem) Subtotal() decimal.Decimal {
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ItemCount soma as quantidades de todos os itens.
func (c Cart) ItemCount() int {
	total := 0
	for _, item := range c.Items {
		total += item.Quantity
	}
	return total
}
