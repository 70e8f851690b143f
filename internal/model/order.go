package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StatusOrder define os possíveis status de um pedido
type StatusOrder string

const (
	StatusPending StatusOrder = "pending"
	StatusPaid    StatusOrder = "paid"
)

// Order representa uma ordem de compra criada a partir do carrinho.
// TotalPrice é congelado na criação e nunca recalculado.
type Order struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	UserID     uint            `gorm:"index;not null" json:"user_id"`
	User       User            `gorm:"foreignKey:UserID" json:"-"`
	Status     StatusOrder     `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	TotalPrice decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_price"`
	PaidAt     *time.Time      `json:"paid_at,omitempty"`
	Items      []OrderItem     `gorm:"foreignKey:OrderID" json:"items"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	DeletedAt  gorm.DeletedAt  `gorm:"index" json:"-"`
}

// OrderItem guarda o estado do item no momento da compra.
type OrderItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	OrderID     uint            `gorm:"index;not null" json:"order_id"`
	ProductID   uint            `gorm:"not null" json:"product_id"`
	ProductName string          `gorm:"not null;size:150" json:"product_name"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"unit_price"` // Preço no momento da compra (importante!)
	Subtotal    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"subtotal"`
	CreatedAt   time.Time       `json:"created_at"`
}

// IsPaid informa se o pedido já foi pago.
func (o Order) IsPaid() bool {
	return o.Status == StatusPaid
}
