package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ericoliveiras/shopeasy/internal/export"
	"github.com/ericoliveiras/shopeasy/internal/model"
	"github.com/ericoliveiras/shopeasy/internal/service"
)

// UploadPrefix é o caminho público das imagens enviadas.
const UploadPrefix = "uploads"

type ProductHandler struct {
	Catalog   *service.CatalogService
	UploadDir string
	Log       *slog.Logger
}

type productRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock"`
	ImageURL    *string          `json:"image_url"`
}

type productResponse struct {
	model.Product
	ImageURLFinal *string `json:"image_url_final"`
}

type productPage struct {
	Count    int64             `json:"count"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
	Results  []productResponse `json:"results"`
}

func (h *ProductHandler) present(c *gin.Context, p model.Product) productResponse {
	return productResponse{Product: p, ImageURLFinal: service.ResolveImageURL(p, requestBaseURL(c))}
}

// ListProducts aceita ?search=, ?page= e ?page_size=.
func (h *ProductHandler) ListProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = service.ClampPaging(page, pageSize)
	products, total, err := h.Catalog.List(c.Request.Context(), service.ListFilter{
		Search:   c.Query("search"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	results := make([]productResponse, 0, len(products))
	for _, p := range products {
		results = append(results, h.present(c, p))
	}
	c.JSON(http.StatusOK, productPage{Count: total, Page: page, PageSize: pageSize, Results: results})
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	product, err := h.Catalog.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.present(c, *product))
}

// CreateProduct aceita JSON ou multipart/form-data com o arquivo em "image".
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	req, imageFile, ok := h.bindProduct(c)
	if !ok {
		return
	}
	in := service.ProductInput{ImageFile: imageFile}
	if req.Name != nil {
		in.Name = *req.Name
	}
	if req.Description != nil {
		in.Description = *req.Description
	}
	if req.Price != nil {
		in.Price = *req.Price
	}
	if req.Stock != nil {
		in.Stock = *req.Stock
	}
	if req.ImageURL != nil {
		in.ImageURL = *req.ImageURL
	}

	product, err := h.Catalog.Create(c.Request.Context(), in)
	if err != nil {
		h.discardUpload(imageFile)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.present(c, *product))
}

func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	req, imageFile, ok := h.bindProduct(c)
	if !ok {
		return
	}
	update := service.ProductUpdate{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		ImageURL:    req.ImageURL,
	}
	previousFile := ""
	if imageFile != "" {
		update.ImageFile = &imageFile
		if current, err := h.Catalog.Get(c.Request.Context(), id); err == nil {
			previousFile = current.ImageFile
		}
	}

	product, err := h.Catalog.Update(c.Request.Context(), id, update)
	if err != nil {
		h.discardUpload(imageFile)
		respondError(c, err)
		return
	}
	// A imagem substituída não é mais referenciada por nenhum produto.
	if previousFile != "" && previousFile != product.ImageFile {
		h.discardUpload(previousFile)
	}
	c.JSON(http.StatusOK, h.present(c, *product))
}

// DeleteProduct faz exclusão lógica. A imagem é mantida para o histórico.
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.Catalog.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ProductHistory devolve o produto mesmo que excluído.
func (h *ProductHandler) ProductHistory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	product, err := h.Catalog.GetHistorical(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"product": h.present(c, *product),
		"deleted": product.IsDeleted(),
	})
}

func (h *ProductHandler) ExportProducts(c *gin.Context) {
	products, err := h.Catalog.All(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	baseURL := requestBaseURL(c)
	c.Header("Content-Disposition", "attachment; filename=products.xlsx")
	c.Header("Content-Type", export.ContentType)
	c.Status(http.StatusOK)
	err = export.WriteProducts(c.Writer, products, func(p model.Product) string {
		if url := service.ResolveImageURL(p, baseURL); url != nil {
			return *url
		}
		return ""
	})
	if err != nil {
		// Cabeçalhos já foram enviados; resta registrar.
		_ = c.Error(err)
		h.Log.Error("falha ao exportar produtos", "error", err)
	}
}

// bindProduct lê o corpo em JSON ou multipart. Quando há arquivo em "image",
// ele é salvo em UploadDir com nome uuid e o caminho público é devolvido.
func (h *ProductHandler) bindProduct(c *gin.Context) (productRequest, string, bool) {
	var req productRequest
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Dados inválidos.")
			return req, "", false
		}
		return req, "", true
	}

	if v, ok := c.GetPostForm("name"); ok {
		req.Name = &v
	}
	if v, ok := c.GetPostForm("description"); ok {
		req.Description = &v
	}
	if v, ok := c.GetPostForm("image_url"); ok {
		req.ImageURL = &v
	}
	if v, ok := c.GetPostForm("price"); ok {
		price, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			badRequest(c, "O preço fornecido é inválido.")
			return req, "", false
		}
		req.Price = &price
	}
	if v, ok := c.GetPostForm("stock"); ok {
		stock, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			badRequest(c, "O estoque fornecido é inválido.")
			return req, "", false
		}
		req.Stock = &stock
	}

	file, err := c.FormFile("image")
	if err == http.ErrMissingFile {
		return req, "", true
	}
	if err != nil {
		badRequest(c, fmt.Sprintf("Erro ao obter arquivo: %s", err.Error()))
		return req, "", false
	}

	if err := os.MkdirAll(h.UploadDir, 0o755); err != nil {
		respondError(c, err)
		return req, "", false
	}
	name := uuid.New().String() + strings.ToLower(filepath.Ext(file.Filename))
	if err := c.SaveUploadedFile(file, filepath.Join(h.UploadDir, name)); err != nil {
		respondError(c, fmt.Errorf("falha ao salvar arquivo: %w", err))
		return req, "", false
	}
	return req, UploadPrefix + "/" + name, true
}

func (h *ProductHandler) discardUpload(imageFile string) {
	if imageFile == "" {
		return
	}
	path := filepath.Join(h.UploadDir, strings.TrimPrefix(imageFile, UploadPrefix+"/"))
	if err := os.Remove(path); err != nil {
		h.Log.Warn("não foi possível remover o arquivo", "path", path, "error", err)
	}
}

// requestBaseURL monta scheme://host da requisição, respeitando proxies.
func requestBaseURL(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
	}
	host := c.Request.Host
	if fwd := c.GetHeader("X-Forwarded-Host"); fwd != "" {
		host = strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	if host == "" {
		return ""
	}
	return scheme + "://" + host
}
