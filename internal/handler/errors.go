package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ericoliveiras/shopeasy/internal/service"
)

// respondError traduz os erros do serviço para status HTTP e encerra a requisição.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrAlreadyPaid):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, service.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	}
	_ = c.Error(err)

	if status == http.StatusInternalServerError {
		c.AbortWithStatusJSON(status, gin.H{"error": "Erro interno do servidor."})
		return
	}
	body := gin.H{"error": err.Error()}
	var ve *service.ValidationError
	if errors.As(err, &ve) && ve.Field != "" {
		body["field"] = ve.Field
	}
	c.AbortWithStatusJSON(status, body)
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}

// parseID lê um parâmetro de rota numérico. Responde 400 quando inválido.
func parseID(c *gin.Context, name string) (uint, bool) {
	id64, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id64 == 0 {
		badRequest(c, "ID inválido.")
		return 0, false
	}
	return uint(id64), true
}
