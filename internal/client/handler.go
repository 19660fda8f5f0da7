package client

import (
	"discovery-tracker-api/internal/authz"
	"discovery-tracker-api/internal/errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

type CreateRequest struct {
	ID            string `json:"id"`
	Name          string `json:"name" binding:"required,min=1,max=255"`
	BillingNumber string `json:"billing_number" binding:"required"`
	Court         string `json:"court"`
	CauseNumber   string `json:"cause_number"`
	County        string `json:"county"`
	USState       string `json:"us_state"`
}

func (h *Handler) Create(c *gin.Context) {
	var form CreateRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.Validation(err))
		return
	}

	username := c.GetString("username")
	created, err := h.service.Create(c.Request.Context(), &Client{
		ID:            form.ID,
		Name:          form.Name,
		BillingNumber: form.BillingNumber,
		Court:         form.Court,
		CauseNumber:   form.CauseNumber,
		County:        form.County,
		USState:       form.USState,
	}, username)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// Show returns one client by id or billing number, or every visible client
// when id is the wildcard.
func (h *Handler) Show(c *gin.Context) {
	username := c.GetString("username")

	if id := c.Query("client_id"); id != "" {
		if id == authz.Wildcard {
			clients, err := h.service.GetAll(c.Request.Context(), username)
			if err != nil {
				c.Error(err)
				return
			}
			c.JSON(http.StatusOK, clients)
			return
		}
		client, err := h.service.Get(c.Request.Context(), id, username)
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, client)
		return
	}

	if billingNumber := c.Query("billing_number"); billingNumber != "" {
		client, err := h.service.GetByBillingNumber(c.Request.Context(), billingNumber, username)
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, client)
		return
	}

	c.Error(errors.MissingSearchParameter())
}

type UpdateRequest struct {
	ID      string `json:"id" binding:"required"`
	Version string `json:"version" binding:"required"`
	Update
}

func (h *Handler) Update(c *gin.Context) {
	var form UpdateRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.Validation(err))
		return
	}

	username := c.GetString("username")
	newVersion, err := h.service.Update(c.Request.Context(), form.ID, form.Update, form.Version, username)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": form.ID, "version": newVersion})
}

func (h *Handler) Delete(c *gin.Context) {
	username := c.GetString("username")

	if err := h.service.Delete(c.Request.Context(), c.Param("id"), username); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Client deleted successfully", "status": "success"})
}

func (h *Handler) AddAuthorizedUser(c *gin.Context) {
	target := c.Query("authorized_user")
	if target == "" {
		c.Error(errors.MissingUsername())
		return
	}

	username := c.GetString("username")
	clientID := c.Param("id")

	changed, err := h.service.AddAuthorizedUser(c.Request.Context(), clientID, username, target)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "User " + target + " added to client " + clientID,
		"status":    "success",
		"no_change": !changed,
	})
}

func (h *Handler) RemoveAuthorizedUser(c *gin.Context) {
	target := c.Query("authorized_user")
	if target == "" {
		c.Error(errors.MissingUsername())
		return
	}

	username := c.GetString("username")
	clientID := c.Param("id")

	changed, err := h.service.RemoveAuthorizedUser(c.Request.Context(), clientID, username, target)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "User " + target + " removed from client " + clientID,
		"status":    "success",
		"no_change": !changed,
	})
}
