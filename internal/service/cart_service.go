package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ericoliveiras/shopeasy/internal/model"
)

// CartService mantém o carrinho único de cada usuário.
// Toda alteração roda numa transação que trava a linha do carrinho.
type CartService struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewCartService(db *gorm.DB, log *slog.Logger) *CartService {
	return &CartService{db: db, log: log}
}

// MaxItemQuantity é o limite de unidades de um mesmo produto no carrinho.
const MaxItemQuantity = 10000

var errQuantityTooLarge = invalid("quantity", fmt.Sprintf("a quantidade não pode passar de %d unidades", MaxItemQuantity))

type ItemInput struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

// GetOrCreateCart devolve o carrinho do usuário, criando um vazio na primeira vez.
func (s *CartService) GetOrCreateCart(ctx context.Context, userID uint) (*model.Cart, error) {
	var cartID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := getOrCreateCart(tx, userID, false)
		if err != nil {
			return err
		}
		cartID = cart.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return loadCart(s.db.WithContext(ctx), cartID)
}

// AddItem soma quantity ao item do produto, ou cria o item. Estoque só é verificado no checkout.
func (s *CartService) AddItem(ctx context.Context, userID, productID uint, quantity int) (*model.Cart, error) {
	if productID == 0 {
		return nil, invalid("product_id", "o produto é obrigatório")
	}
	if quantity < 1 {
		return nil, invalid("quantity", "a quantidade deve ser maior que zero")
	}
	if quantity > MaxItemQuantity {
		return nil, errQuantityTooLarge
	}

	var cartID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireActiveProducts(tx, []uint{productID}); err != nil {
			return err
		}
		cart, err := getOrCreateCart(tx, userID, true)
		if err != nil {
			return err
		}
		cartID = cart.ID

		var item model.CartItem
		err = tx.Where("cart_id = ? AND product_id = ?", cart.ID, productID).First(&item).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			item = model.CartItem{CartID: cart.ID, ProductID: productID, Quantity: quantity}
			if err := tx.Omit("Product").Create(&item).Error; err != nil {
				return fmt.Errorf("falha ao adicionar item ao carrinho: %w", err)
			}
		case err != nil:
			return fmt.Errorf("falha ao buscar item do carrinho: %w", err)
		default:
			if item.Quantity > MaxItemQuantity-quantity {
				return errQuantityTooLarge
			}
			if err := tx.Model(&item).Update("quantity", gorm.Expr("quantity + ?", quantity)).Error; err != nil {
				return fmt.Errorf("falha ao atualizar item do carrinho: %w", err)
			}
		}
		return recomputeTotal(tx, cart.ID)
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug("item adicionado ao carrinho", "user_id", userID, "product_id", productID, "quantity", quantity)
	return loadCart(s.db.WithContext(ctx), cartID)
}

// RemoveItem decrementa a quantidade; se não sobrar nada o item é removido.
func (s *CartService) RemoveItem(ctx context.Context, userID, productID uint, quantity int) (*model.Cart, error) {
	if productID == 0 {
		return nil, invalid("product_id", "o ID do produto é obrigatório")
	}
	if quantity < 1 {
		return nil, invalid("quantity", "a quantidade deve ser maior que zero")
	}

	var cartID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := findCart(tx, userID, true)
		if err != nil {
			return err
		}
		cartID = cart.ID

		var item model.CartItem
		if err := tx.Where("cart_id = ? AND product_id = ?", cart.ID, productID).First(&item).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("item do carrinho para o produto", productID)
			}
			return fmt.Errorf("falha ao buscar item do carrinho: %w", err)
		}

		if item.Quantity > quantity {
			if err := tx.Model(&item).Update("quantity", gorm.Expr("quantity - ?", quantity)).Error; err != nil {
				return fmt.Errorf("falha ao atualizar item do carrinho: %w", err)
			}
		} else if err := tx.Delete(&item).Error; err != nil {
			return fmt.Errorf("falha ao remover item do carrinho: %w", err)
		}
		return recomputeTotal(tx, cart.ID)
	})
	if err != nil {
		return nil, err
	}
	return loadCart(s.db.WithContext(ctx), cartID)
}

// ReplaceItems troca todos os itens do carrinho pelo conjunto informado.
// Produtos repetidos na entrada têm as quantidades somadas.
func (s *CartService) ReplaceItems(ctx context.Context, userID uint, items []ItemInput) (*model.Cart, error) {
	merged, err := mergeItems(items)
	if err != nil {
		return nil, err
	}

	var cartID uint
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids := make([]uint, 0, len(merged))
		for _, in := range merged {
			ids = append(ids, in.ProductID)
		}
		if err := requireActiveProducts(tx, ids); err != nil {
			return err
		}
		cart, err := getOrCreateCart(tx, userID, true)
		if err != nil {
			return err
		}
		cartID = cart.ID

		if err := tx.Where("cart_id = ?", cart.ID).Delete(&model.CartItem{}).Error; err != nil {
			return fmt.Errorf("falha ao limpar itens do carrinho: %w", err)
		}
		if len(merged) > 0 {
			rows := make([]model.CartItem, 0, len(merged))
			for _, in := range merged {
				rows = append(rows, model.CartItem{CartID: cart.ID, ProductID: in.ProductID, Quantity: in.Quantity})
			}
			if err := tx.Omit("Product").Create(&rows).Error; err != nil {
				return fmt.Errorf("falha ao inserir itens do carrinho: %w", err)
			}
		}
		return recomputeTotal(tx, cart.ID)
	})
	if err != nil {
		return nil, err
	}
	return loadCart(s.db.WithContext(ctx), cartID)
}

// ClearCart remove todos os itens do carrinho.
func (s *CartService) ClearCart(ctx context.Context, userID uint) (*model.Cart, error) {
	return s.ReplaceItems(ctx, userID, nil)
}

func mergeItems(items []ItemInput) ([]ItemInput, error) {
	merged := make([]ItemInput, 0, len(items))
	index := make(map[uint]int, len(items))
	for _, in := range items {
		if in.ProductID == 0 {
			return nil, invalid("product_id", "o produto é obrigatório")
		}
		if in.Quantity < 1 {
			return nil, invalid("quantity", "a quantidade deve ser maior que zero")
		}
		if in.Quantity > MaxItemQuantity {
			return nil, errQuantityTooLarge
		}
		if i, ok := index[in.ProductID]; ok {
			if merged[i].Quantity > MaxItemQuantity-in.Quantity {
				return nil, errQuantityTooLarge
			}
			merged[i].Quantity += in.Quantity
			continue
		}
		index[in.ProductID] = len(merged)
		merged = append(merged, in)
	}
	return merged, nil
}

func findCart(tx *gorm.DB, userID uint, lock bool) (*model.Cart, error) {
	q := tx
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var cart model.Cart
	if err := q.Where("user_id = ?", userID).First(&cart).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("carrinho", 0)
		}
		return nil, fmt.Errorf("falha ao buscar carrinho: %w", err)
	}
	return &cart, nil
}

// getOrCreateCart depende do índice único em carts.user_id: duas requisições
// simultâneas nunca criam dois carrinhos para o mesmo usuário.
func getOrCreateCart(tx *gorm.DB, userID uint, lock bool) (*model.Cart, error) {
	if userID == 0 {
		return nil, invalid("user_id", "usuário não autenticado")
	}
	cart, err := findCart(tx, userID, lock)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	fresh := model.Cart{UserID: userID, TotalPrice: decimal.Zero}
	err = tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&fresh).Error
	if err != nil {
		return nil, fmt.Errorf("falha ao criar carrinho: %w", err)
	}
	return findCart(tx, userID, lock)
}

func requireActiveProducts(tx *gorm.DB, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	var found []uint
	if err := tx.Model(&model.Product{}).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return fmt.Errorf("falha ao verificar produtos: %w", err)
	}
	present := make(map[uint]bool, len(found))
	for _, id := range found {
		present[id] = true
	}
	for _, id := range ids {
		if !present[id] {
			return notFound("produto", id)
		}
	}
	return nil
}

// recomputeTotal grava em carts.total_price a soma preço x quantidade dos itens ativos.
// Produtos excluídos depois de entrarem no carrinho continuam contando pelo preço registrado.
func recomputeTotal(tx *gorm.DB, cartID uint) error {
	var items []model.CartItem
	err := tx.Preload("Product", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Where("cart_id = ?", cartID).
		Find(&items).Error
	if err != nil {
		return fmt.Errorf("falha ao carregar itens do carrinho: %w", err)
	}
	if err := tx.Model(&model.Cart{ID: cartID}).Update("total_price", sumItems(items)).Error; err != nil {
		return fmt.Errorf("falha ao atualizar total do carrinho: %w", err)
	}
	return nil
}

func recomputeCartsWithProduct(tx *gorm.DB, productID uint) error {
	var cartIDs []uint
	err := tx.Model(&model.CartItem{}).Where("product_id = ?", productID).Distinct().Order("cart_id ASC").Pluck("cart_id", &cartIDs).Error
	if err != nil {
		return fmt.Errorf("falha ao buscar carrinhos do produto %d: %w", productID, err)
	}
	for _, id := range cartIDs {
		if err := recomputeTotal(tx, id); err != nil {
			return err
		}
	}
	return nil
}

func sumItems(items []model.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}

func loadCart(db *gorm.DB, cartID uint) (*model.Cart, error) {
	var cart model.Cart
	err := db.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("cart_items.id ASC") }).
		Preload("Items.Product", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		First(&cart, cartID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("carrinho", cartID)
		}
		return nil, fmt.Errorf("falha ao carregar carrinho: %w", err)
	}
	// O total devolvido sempre vem dos preços atuais, igual ao que o checkout cobra.
	cart.TotalPrice = sumItems(cart.Items)
	return &cart, nil
}
