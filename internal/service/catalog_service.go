package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ericoliveiras/shopeasy/internal/model"
)

// CatalogService mantém os produtos. Exclusão é sempre lógica.
type CatalogService struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewCatalogService(db *gorm.DB, log *slog.Logger) *CatalogService {
	return &CatalogService{db: db, log: log}
}

type ProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	ImageFile   string
	ImageURL    string
}

// ProductUpdate aplica apenas os campos não nulos.
type ProductUpdate struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Stock       *int
	ImageFile   *string
	ImageURL    *string
}

type ListFilter struct {
	Search         string
	Page           int
	PageSize       int
	IncludeDeleted bool
}

// ClampPaging normaliza página e tamanho: página mínima 1, tamanho entre 1 e 100 (padrão 20).
func ClampPaging(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	} else if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}

func Paging(page, pageSize int) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		page, pageSize := ClampPaging(page, pageSize)
		offset := (page - 1) * pageSize
		return db.Offset(offset).Limit(pageSize)
	}
}

func (s *CatalogService) Create(ctx context.Context, in ProductInput) (*model.Product, error) {
	product := model.Product{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
		ImageFile:   strings.TrimSpace(in.ImageFile),
		ImageURL:    strings.TrimSpace(in.ImageURL),
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(&product).Error; err != nil {
		return nil, fmt.Errorf("falha ao criar produto: %w", err)
	}
	s.log.Info("produto criado", "product_id", product.ID)
	return &product, nil
}

func (s *CatalogService) Update(ctx context.Context, id uint, in ProductUpdate) (*model.Product, error) {
	product, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		product.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		product.Description = *in.Description
	}
	priceChanged := false
	if in.Price != nil {
		priceChanged = !product.Price.Equal(*in.Price)
		product.Price = *in.Price
	}
	if in.Stock != nil {
		product.Stock = *in.Stock
	}
	if in.ImageFile != nil {
		product.ImageFile = strings.TrimSpace(*in.ImageFile)
	}
	if in.ImageURL != nil {
		product.ImageURL = strings.TrimSpace(*in.ImageURL)
	}
	if err := validateProduct(*product); err != nil {
		return nil, err
	}
	// Mudança de preço recalcula, na mesma transação, os carrinhos que têm o produto.
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(product).Error; err != nil {
			return fmt.Errorf("falha ao atualizar produto %d: %w", id, err)
		}
		if priceChanged {
			return recomputeCartsWithProduct(tx, product.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

// Delete marca o produto como excluído. O registro nunca é removido fisicamente.
func (s *CatalogService) Delete(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&model.Product{}, id)
	if result.Error != nil {
		return fmt.Errorf("falha ao excluir produto %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return notFound("produto", id)
	}
	s.log.Info("produto excluído", "product_id", id)
	return nil
}

// Get busca um produto ativo.
func (s *CatalogService) Get(ctx context.Context, id uint) (*model.Product, error) {
	var product model.Product
	if err := s.db.WithContext(ctx).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("produto", id)
		}
		return nil, fmt.Errorf("falha ao buscar produto %d: %w", id, err)
	}
	return &product, nil
}

// GetHistorical busca um produto mesmo que já tenha sido excluído.
func (s *CatalogService) GetHistorical(ctx context.Context, id uint) (*model.Product, error) {
	var product model.Product
	if err := s.db.WithContext(ctx).Unscoped().First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("produto", id)
		}
		return nil, fmt.Errorf("falha ao buscar produto %d: %w", id, err)
	}
	return &product, nil
}

// List devolve a página pedida e o total de registros que casam com o filtro.
func (s *CatalogService) List(ctx context.Context, f ListFilter) ([]model.Product, int64, error) {
	q := s.db.WithContext(ctx).Model(&model.Product{})
	if f.IncludeDeleted {
		q = q.Unscoped()
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		q = q.Where(`LOWER(name) LIKE ? ESCAPE '\'`, "%"+likeEscaper.Replace(strings.ToLower(search))+"%")
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("falha ao contar produtos: %w", err)
	}

	products := []model.Product{}
	if err := q.Scopes(Paging(f.Page, f.PageSize)).Order("id ASC").Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("falha ao listar produtos: %w", err)
	}
	return products, total, nil
}

// All devolve todos os produtos ativos, sem paginação.
func (s *CatalogService) All(ctx context.Context) ([]model.Product, error) {
	products := []model.Product{}
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("falha ao listar produtos: %w", err)
	}
	return products, nil
}

// likeEscaper faz os curingas do LIKE casarem literalmente no termo de busca.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ResolveImageURL monta a URL final da imagem: upload primeiro, depois a URL externa.
func ResolveImageURL(p model.Product, baseURL string) *string {
	if p.ImageFile != "" {
		path := strings.TrimLeft(p.ImageFile, "/")
		url := "/" + path
		if baseURL != "" {
			url = strings.TrimRight(baseURL, "/") + "/" + path
		}
		return &url
	}
	if p.ImageURL != "" {
		url := p.ImageURL
		return &url
	}
	return nil
}

func validateProduct(p model.Product) error {
	if p.Name == "" {
		return invalid("name", "o nome do produto é obrigatório")
	}
	if p.Price.IsNegative() {
		return invalid("price", "o preço não pode ser negativo")
	}
	if p.Stock < 0 {
		return invalid("stock", "o estoque não pode ser negativo")
	}
	if p.ImageFile == "" && p.ImageURL == "" {
		return invalid("image", "envie uma imagem ou uma URL da imagem")
	}
	return nil
}
