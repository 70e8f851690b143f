package handler

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"

	"github.com/ericoliveiras/shopeasy/internal/export"
	"github.com/ericoliveiras/shopeasy/internal/testutil"
)

type productBody struct {
	ID            uint            `json:"id"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	Stock         int             `json:"stock"`
	ImageFile     string          `json:"image_file"`
	ImageURLFinal *string         `json:"image_url_final"`
}

func TestCreateProductJSON(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.admin(t)

	rec := s.do(t, http.MethodPost, "/api/v1/products", gin.H{
		"name":      "Mochila",
		"price":     "120.00",
		"stock":     7,
		"image_url": "https://cdn.example.com/mochila.jpg",
	}, adminToken)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var p productBody
	decode(t, rec, &p)
	assert.Equal(t, "Mochila", p.Name)
	require.NotNil(t, p.ImageURLFinal)
	assert.Equal(t, "https://cdn.example.com/mochila.jpg", *p.ImageURLFinal)

	rec = s.do(t, http.MethodPost, "/api/v1/products", gin.H{"name": "Sem imagem", "price": "1"}, adminToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	_, customerToken := s.customer(t)
	rec = s.do(t, http.MethodPost, "/api/v1/products", gin.H{"name": "X"}, customerToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCreateProductMultipartUpload(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.admin(t)

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	require.NoError(t, form.WriteField("name", "Quadro"))
	require.NoError(t, form.WriteField("price", "89.90"))
	require.NoError(t, form.WriteField("stock", "2"))
	part, err := form.CreateFormFile("image", "quadro.PNG")
	require.NoError(t, err)
	_, err = part.Write([]byte("conteudo-da-imagem"))
	require.NoError(t, err)
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", &buf)
	req.Host = "loja.example.com"
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+adminToken)
	req.Header.Set("X-Forwarded-Proto", "https")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var p productBody
	decode(t, rec, &p)
	assert.True(t, strings.HasPrefix(p.ImageFile, UploadPrefix+"/"))
	assert.True(t, strings.HasSuffix(p.ImageFile, ".png"))
	require.NotNil(t, p.ImageURLFinal)
	assert.Equal(t, "https://loja.example.com/"+p.ImageFile, *p.ImageURLFinal)

	saved, err := os.ReadFile(filepath.Join(s.cfg.UploadDir, strings.TrimPrefix(p.ImageFile, UploadPrefix+"/")))
	require.NoError(t, err)
	assert.Equal(t, "conteudo-da-imagem", string(saved))

	get := httptest.NewRecorder()
	s.router.ServeHTTP(get, httptest.NewRequest(http.MethodGet, "/"+p.ImageFile, nil))
	assert.Equal(t, http.StatusOK, get.Code)
}

func TestListAndSearchProducts(t *testing.T) {
	s := newTestServer(t)
	testutil.CreateProduct(t, s.db, "1.00", 1)
	testutil.CreateProduct(t, s.db, "2.00", 1)

	rec := s.do(t, http.MethodGet, "/api/v1/products?page_size=1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Count   int64         `json:"count"`
		Results []productBody `json:"results"`
	}
	decode(t, rec, &page)
	assert.EqualValues(t, 2, page.Count)
	assert.Len(t, page.Results, 1)

	rec = s.do(t, http.MethodGet, "/api/v1/products?search=inexistente", nil, "")
	page.Results = nil
	decode(t, rec, &page)
	assert.Zero(t, page.Count)
	assert.Empty(t, page.Results)
}

func TestListProductsReportsClampedPaging(t *testing.T) {
	s := newTestServer(t)
	testutil.CreateProduct(t, s.db, "1.00", 1)

	rec := s.do(t, http.MethodGet, "/api/v1/products?page=0&page_size=1000", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Count    int64         `json:"count"`
		Page     int           `json:"page"`
		PageSize int           `json:"page_size"`
		Results  []productBody `json:"results"`
	}
	decode(t, rec, &page)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 100, page.PageSize)
	assert.Len(t, page.Results, 1)
}

func (s testServer) sendProductForm(t *testing.T, method, path, token string, fields map[string]string, filename string) productBody {
	t.Helper()
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, form.WriteField(k, v))
	}
	part, err := form.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte("imagem " + filename))
	require.NoError(t, err)
	require.NoError(t, form.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	require.Less(t, rec.Code, 300, rec.Body.String())

	var p productBody
	decode(t, rec, &p)
	return p
}

func TestUpdateProductRemovesReplacedImage(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.admin(t)
	uploaded := func(p productBody) string {
		return filepath.Join(s.cfg.UploadDir, strings.TrimPrefix(p.ImageFile, UploadPrefix+"/"))
	}

	created := s.sendProductForm(t, http.MethodPost, "/api/v1/products", adminToken,
		map[string]string{"name": "Luminária", "price": "59.90", "stock": "3"}, "antiga.jpg")
	require.FileExists(t, uploaded(created))

	updated := s.sendProductForm(t, http.MethodPut, fmt.Sprintf("/api/v1/products/%d", created.ID), adminToken,
		map[string]string{"stock": "4"}, "nova.jpg")
	assert.NotEqual(t, created.ImageFile, updated.ImageFile)
	assert.FileExists(t, uploaded(updated))
	assert.NoFileExists(t, uploaded(created))

	// Sem novo arquivo a imagem atual fica.
	rec := s.do(t, http.MethodPut, fmt.Sprintf("/api/v1/products/%d", created.ID), gin.H{"stock": 5}, adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.FileExists(t, uploaded(updated))
}

func TestUpdateDeleteAndHistory(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.admin(t)
	product := testutil.CreateProduct(t, s.db, "10.00", 5)
	path := fmt.Sprintf("/api/v1/products/%d", product.ID)

	rec := s.do(t, http.MethodPut, path, gin.H{"stock": 9, "price": 11.5}, adminToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var p productBody
	decode(t, rec, &p)
	assert.Equal(t, 9, p.Stock)
	assert.True(t, p.Price.Equal(decimal.RequireFromString("11.5")))

	rec = s.do(t, http.MethodDelete, path, nil, adminToken)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, path, nil, "").Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, path, nil, adminToken).Code)

	rec = s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/admin/products/%d/history", product.ID), nil, adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var history struct {
		Product productBody `json:"product"`
		Deleted bool        `json:"deleted"`
	}
	decode(t, rec, &history)
	assert.True(t, history.Deleted)
	assert.Equal(t, product.Name, history.Product.Name)
}

func TestExportProducts(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.admin(t)
	first := testutil.CreateProduct(t, s.db, "3.00", 1)
	testutil.CreateProduct(t, s.db, "4.00", 2)

	rec := s.do(t, http.MethodGet, "/api/v1/admin/products/export", nil, adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, export.ContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "products.xlsx")

	file, err := xlsx.OpenBinary(rec.Body.Bytes())
	require.NoError(t, err)
	sheet := file.Sheet[export.SheetName]
	require.NotNil(t, sheet)
	require.Len(t, sheet.Rows, 3)
	assert.Equal(t, first.Name, sheet.Rows[1].Cells[1].String())
}

func TestRequestBaseURL(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.Host = "api.local:8080"
	assert.Equal(t, "http://api.local:8080", requestBaseURL(c))

	c.Request.Header.Set("X-Forwarded-Proto", "https, http")
	c.Request.Header.Set("X-Forwarded-Host", "loja.example.com")
	assert.Equal(t, "https://loja.example.com", requestBaseURL(c))
}
