package user

import (
	"discovery-tracker-api/auth"
	"discovery-tracker-api/internal/errors"
	"discovery-tracker-api/redis"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for users
type Handler struct {
	service Service
}

// NewHandler creates a new user handler
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// FormLogin represents login form data
type FormLogin struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// FormRegister represents registration form data
type FormRegister struct {
	Username string `json:"username" binding:"required,email"`
	FullName string `json:"full_name" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
}

// Register handles user registration
func (h *Handler) Register(c *gin.Context) {
	var form FormRegister
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.Validation(err))
		return
	}

	u := &User{
		Username: form.Username,
		FullName: form.FullName,
	}

	if err := h.service.Register(c.Request.Context(), u, form.Password); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": u.ToSafeUser()})
}

// Login authenticates and opens a redis-backed session keyed by the token.
func (h *Handler) Login(c *gin.Context) {
	var form FormLogin
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.Validation(err))
		return
	}

	u, err := h.service.Login(c.Request.Context(), form.Username, form.Password)
	if err != nil {
		c.Error(err)
		return
	}

	token, err := auth.GenerateJWT(u.Username, u.IsAdmin)
	if err != nil {
		c.Error(errors.Internal(err))
		return
	}

	if redis.RedisClient != nil {
		if err := redis.RedisClient.Set(redis.Ctx, token, u.Username, auth.SessionTTL()).Err(); err != nil {
			log.Printf("session store failed for %s: %v", u.Username, err)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"user":         u.ToSafeUser(),
	})
}

// Logout handles user logout
func (h *Handler) Logout(c *gin.Context) {
	token := c.GetString("jwt_token")
	if redis.RedisClient != nil && token != "" {
		if err := redis.RedisClient.Del(redis.Ctx, token).Err(); err != nil {
			log.Printf("session delete failed: %v", err)
		}
	}
	c.Status(http.StatusNoContent)
}

// GetProfile handles getting the current user's profile
func (h *Handler) GetProfile(c *gin.Context) {
	username := c.GetString("username")
	if username == "" {
		c.Error(errors.MissingUsername())
		return
	}

	u, err := h.service.GetByUsername(c.Request.Context(), username)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, u.ToSafeUser())
}
