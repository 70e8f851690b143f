package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"

	"github.com/ericoliveiras/shopeasy/internal/auth"
	"github.com/ericoliveiras/shopeasy/internal/model"
	"github.com/ericoliveiras/shopeasy/internal/service"
)

const (
	SessionName   = "shopeasy-session"
	sessionUserID = "userID"
)

type AuthHandler struct {
	Users  *service.UserService
	Tokens *auth.TokenIssuer
	Store  *sessions.CookieStore
	Log    *slog.Logger
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	Refresh string `json:"refresh" binding:"required"`
}

// Register cadastra um novo cliente.
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Dados inválidos.")
		return
	}
	user, err := h.Users.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// Token autentica por usuário ou e-mail e devolve o par access/refresh.
// O id do usuário também vai para o cookie de sessão.
func (h *AuthHandler) Token(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Informe usuário e senha.")
		return
	}
	user, err := h.Users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Usuário ou senha inválidos."})
			return
		}
		respondError(c, err)
		return
	}

	pair, err := h.Tokens.IssuePair(user.ID, user.Role)
	if err != nil {
		respondError(c, err)
		return
	}

	session, _ := h.Store.Get(c.Request, SessionName)
	session.Values[sessionUserID] = user.ID
	if err := session.Save(c.Request, c.Writer); err != nil {
		h.Log.Warn("falha ao salvar sessão de login", "user_id", user.ID, "error", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"access":  pair.Access,
		"refresh": pair.Refresh,
		"user":    user,
	})
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Informe o refresh token.")
		return
	}
	access, err := h.Tokens.Refresh(req.Refresh)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access": access})
}

// Logout invalida o cookie de sessão. Tokens JWT expiram sozinhos.
func (h *AuthHandler) Logout(c *gin.Context) {
	session, _ := h.Store.Get(c.Request, SessionName)
	delete(session.Values, sessionUserID)
	session.Options.MaxAge = -1
	if err := session.Save(c.Request, c.Writer); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logout realizado com sucesso."})
}

func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, currentUser(c))
}

func (h *AuthHandler) UpdateMe(c *gin.Context) {
	var req service.ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Dados inválidos.")
		return
	}
	user, err := h.Users.UpdateProfile(c.Request.Context(), currentUser(c).ID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req service.PasswordChange
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Dados inválidos.")
		return
	}
	if err := h.Users.ChangePassword(c.Request.Context(), currentUser(c).ID, req); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Senha alterada com sucesso."})
}

// AuthRequired aceita "Authorization: Bearer <access>" ou o cookie de sessão.
func (h *AuthHandler) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := h.bearerUserID(c)
		if !ok {
			userID, ok = h.sessionUserID(c)
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Autenticação necessária."})
			return
		}

		user, err := h.Users.Get(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Usuário não encontrado."})
				return
			}
			respondError(c, err)
			return
		}

		c.Set("user", *user)
		c.Set("user_id", user.ID)
		c.Next()
	}
}

// RoleRequired exige que o usuário autenticado tenha o papel informado.
func (h *AuthHandler) RoleRequired(requiredRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userData, exists := c.Get("user")
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Autenticação necessária."})
			return
		}
		user := userData.(model.User)
		if user.Role != requiredRole {
			h.Log.Warn("acesso negado", "user_id", user.ID, "required_role", requiredRole, "role", user.Role)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Acesso negado."})
			return
		}
		c.Next()
	}
}

func (h *AuthHandler) bearerUserID(c *gin.Context) (uint, bool) {
	header := c.GetHeader("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return 0, false
	}
	claims, err := h.Tokens.Parse(token, auth.TokenAccess)
	if err != nil {
		return 0, false
	}
	userID, err := claims.UserID()
	if err != nil {
		return 0, false
	}
	return userID, true
}

func (h *AuthHandler) sessionUserID(c *gin.Context) (uint, bool) {
	session, err := h.Store.Get(c.Request, SessionName)
	if err != nil {
		return 0, false
	}
	userID, ok := session.Values[sessionUserID].(uint)
	return userID, ok && userID != 0
}

// currentUser só deve ser chamado em rotas atrás de AuthRequired.
func currentUser(c *gin.Context) model.User {
	return c.MustGet("user").(model.User)
}
