package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ericoliveiras/shopeasy/internal/events"
	"github.com/ericoliveiras/shopeasy/internal/metrics"
	"github.com/ericoliveiras/shopeasy/internal/model"
)

// Observer recebe o resultado de cada checkout e pagamento.
type Observer interface {
	ObserveCheckout(outcome string)
	ObservePayment(outcome string)
}

type nopObserver struct{}

func (nopObserver) ObserveCheckout(string) {}
func (nopObserver) ObservePayment(string)  {}

// OrderService converte carrinhos em pedidos e conduz o ciclo pending -> paid.
type OrderService struct {
	db        *gorm.DB
	log       *slog.Logger
	publisher events.Publisher
	observer  Observer
}

func NewOrderService(db *gorm.DB, log *slog.Logger, publisher events.Publisher, observer Observer) *OrderService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	if observer == nil {
		observer = nopObserver{}
	}
	return &OrderService{db: db, log: log, publisher: publisher, observer: observer}
}

// CreateOrder fecha o carrinho do usuário num pedido pendente.
// Validação e baixa de estoque acontecem na mesma transação, com as linhas dos
// produtos travadas em ordem crescente de id; qualquer falta aborta tudo.
func (s *OrderService) CreateOrder(ctx context.Context, userID uint) (*model.Order, error) {
	var order model.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := getOrCreateCart(tx, userID, true)
		if err != nil {
			return err
		}

		var items []model.CartItem
		if err := tx.Where("cart_id = ?", cart.ID).Order("id ASC").Find(&items).Error; err != nil {
			return fmt.Errorf("falha ao carregar itens do carrinho: %w", err)
		}

		required := make(map[uint]int, len(items))
		ids := make([]uint, 0, len(items))
		for _, item := range items {
			if _, seen := required[item.ProductID]; !seen {
				ids = append(ids, item.ProductID)
			}
			required[item.ProductID] += item.Quantity
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

		products := make(map[uint]model.Product, len(ids))
		if len(ids) > 0 {
			var locked []model.Product
			err := tx.Unscoped().
				Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("id IN ?", ids).
				Order("id ASC").
				Find(&locked).Error
			if err != nil {
				return fmt.Errorf("falha ao travar produtos: %w", err)
			}
			for _, p := range locked {
				products[p.ID] = p
			}
		}

		// Fase 1: valida tudo antes de qualquer escrita.
		for _, id := range ids {
			p, ok := products[id]
			if !ok {
				return notFound("produto", id)
			}
			if p.IsDeleted() {
				return invalid("product_id", fmt.Sprintf("o produto %s não está mais disponível", p.Name))
			}
			if p.Stock < required[id] {
				return &InsufficientStockError{
					ProductID:   p.ID,
					ProductName: p.Name,
					Requested:   required[id],
					Available:   p.Stock,
				}
			}
		}

		// Fase 2: baixa de estoque. O WHERE stock >= ? protege contra bancos sem lock de linha.
		for _, id := range ids {
			res := tx.Model(&model.Product{ID: id}).
				Where("stock >= ?", required[id]).
				Update("stock", gorm.Expr("stock - ?", required[id]))
			if res.Error != nil {
				return fmt.Errorf("falha ao baixar estoque do produto %d: %w", id, res.Error)
			}
			if res.RowsAffected != 1 {
				p := products[id]
				return &InsufficientStockError{ProductID: id, ProductName: p.Name, Requested: required[id], Available: p.Stock}
			}
		}

		total := decimal.Zero
		orderItems := make([]model.OrderItem, 0, len(items))
		for _, item := range items {
			p := products[item.ProductID]
			subtotal := p.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
			total = total.Add(subtotal)
			orderItems = append(orderItems, model.OrderItem{
				ProductID:   p.ID,
				ProductName: p.Name,
				Quantity:    item.Quantity,
				UnitPrice:   p.Price,
				Subtotal:    subtotal,
			})
		}

		order = model.Order{
			UserID:     userID,
			Status:     model.StatusPending,
			TotalPrice: total,
			Items:      orderItems,
		}
		if err := tx.Omit("User").Create(&order).Error; err != nil {
			return fmt.Errorf("falha ao criar o pedido: %w", err)
		}
		return nil
	})
	if err != nil {
		var stockErr *InsufficientStockError
		switch {
		case errors.As(err, &stockErr):
			s.observer.ObserveCheckout(metrics.OutcomeInsufficientStock)
			s.log.Warn("checkout recusado por falta de estoque", "user_id", userID, "product_id", stockErr.ProductID,
				"requested", stockErr.Requested, "available", stockErr.Available)
		default:
			s.observer.ObserveCheckout(metrics.OutcomeFailed)
		}
		return nil, err
	}

	s.observer.ObserveCheckout(metrics.OutcomeCreated)
	s.log.Info("pedido criado", "order_id", order.ID, "user_id", userID, "total_price", order.TotalPrice.StringFixed(2))
	s.publish(ctx, events.New(events.TypeOrderCreated, order.ID, userID, map[string]any{
		"total_price": order.TotalPrice.StringFixed(2),
		"items":       len(order.Items),
	}))
	return &order, nil
}

// PayOrder marca o pedido como pago e apaga o carrinho do usuário.
func (s *OrderService) PayOrder(ctx context.Context, userID, orderID uint) (*model.Order, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order model.Order
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND user_id = ?", orderID, userID).
			First(&order).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("pedido", orderID)
			}
			return fmt.Errorf("falha ao buscar pedido %d: %w", orderID, err)
		}
		if order.IsPaid() {
			return &AlreadyPaidError{OrderID: order.ID}
		}

		paidAt := time.Now().UTC()
		err = tx.Model(&order).Updates(map[string]any{
			"status":  model.StatusPaid,
			"paid_at": paidAt,
		}).Error
		if err != nil {
			return fmt.Errorf("falha ao atualizar pedido %d: %w", orderID, err)
		}
		return deleteCart(tx, userID)
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyPaid) {
			s.observer.ObservePayment(metrics.OutcomeAlreadyPaid)
		} else if !errors.Is(err, ErrNotFound) {
			s.observer.ObservePayment(metrics.OutcomeFailed)
		}
		return nil, err
	}

	order, err := s.GetOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	s.observer.ObservePayment(metrics.OutcomePaid)
	s.log.Info("pedido pago", "order_id", order.ID, "user_id", userID)
	s.publish(ctx, events.New(events.TypeOrderPaid, order.ID, userID, map[string]any{
		"total_price": order.TotalPrice.StringFixed(2),
	}))
	return order, nil
}

// DeleteOrder exclui o pedido logicamente. Ele continua disponível no histórico.
func (s *OrderService) DeleteOrder(ctx context.Context, userID, orderID uint) error {
	res := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.Order{}, orderID)
	if res.Error != nil {
		return fmt.Errorf("falha ao excluir pedido %d: %w", orderID, res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("pedido", orderID)
	}
	s.log.Info("pedido excluído", "order_id", orderID, "user_id", userID)
	s.publish(ctx, events.New(events.TypeOrderDeleted, orderID, userID, nil))
	return nil
}

// ListOrders devolve os pedidos ativos do usuário, mais recentes primeiro.
func (s *OrderService) ListOrders(ctx context.Context, userID uint) ([]model.Order, error) {
	orders := []model.Order{}
	err := s.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("falha ao listar pedidos: %w", err)
	}
	return orders, nil
}

func (s *OrderService) GetOrder(ctx context.Context, userID, orderID uint) (*model.Order, error) {
	var order model.Order
	err := s.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		First(&order, orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("pedido", orderID)
		}
		return nil, fmt.Errorf("falha ao buscar pedido %d: %w", orderID, err)
	}
	return &order, nil
}

// ListAllOrders é a visão administrativa; includeDeleted traz também os excluídos.
func (s *OrderService) ListAllOrders(ctx context.Context, includeDeleted bool) ([]model.Order, error) {
	q := s.db.WithContext(ctx)
	if includeDeleted {
		q = q.Unscoped()
	}
	orders := []model.Order{}
	if err := q.Preload("Items").Order("created_at DESC, id DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("falha ao listar pedidos: %w", err)
	}
	return orders, nil
}

// GetOrderHistory busca qualquer pedido, inclusive excluídos.
func (s *OrderService) GetOrderHistory(ctx context.Context, orderID uint) (*model.Order, error) {
	var order model.Order
	err := s.db.WithContext(ctx).Unscoped().Preload("Items").First(&order, orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("pedido", orderID)
		}
		return nil, fmt.Errorf("falha ao buscar pedido %d: %w", orderID, err)
	}
	return &order, nil
}

func deleteCart(tx *gorm.DB, userID uint) error {
	var cart model.Cart
	err := tx.Where("user_id = ?", userID).First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("falha ao buscar carrinho: %w", err)
	}
	if err := tx.Unscoped().Where("cart_id = ?", cart.ID).Delete(&model.CartItem{}).Error; err != nil {
		return fmt.Errorf("falha ao apagar itens do carrinho: %w", err)
	}
	if err := tx.Delete(&cart).Error; err != nil {
		return fmt.Errorf("falha ao apagar carrinho: %w", err)
	}
	return nil
}

func (s *OrderService) publish(ctx context.Context, evt events.Event) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.log.Error("falha ao publicar evento", "type", evt.Type, "order_id", evt.OrderID, "error", err)
	}
}
