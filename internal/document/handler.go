package document

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

func principalFrom(c *gin.Context) authz.Principal {
	return authz.NewPrincipal(c.GetString("username"), c.GetBool("is_admin"))
}

type CreateRequest struct {
	ID             string `json:"id"`
	Path           string `json:"path" binding:"required"`
	Filename       string `json:"filename"`
	Type           string `json:"type"`
	Title          string `json:"title"`
	DocumentDate   string `json:"document_date"`
	ProducedDate   string `json:"produced_date"`
	BeginningBates string `json:"beginning_bates"`
	EndingBates    string `json:"ending_bates"`
	PageCount      int    `json:"page_count"`
}

func (h *Handler) Create(c *gin.Context) {
	var form CreateRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.Validation(err))
		return
	}

	created, err := h.service.Create(c.Request.Context(), &Document{
		ID:             form.ID,
		Path:           form.Path,
		Filename:       form.Filename,
		Type:           form.Type,
		Title:          form.Title,
		DocumentDate:   form.DocumentDate,
		ProducedDate:   form.ProducedDate,
		BeginningBates: form.BeginningBates,
		EndingBates:    form.EndingBates,
		PageCount:      form.PageCount,
	}, principalFrom(c))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// Show returns one document by id or by path.
func (h *Handler) Show(c *gin.Context) {
	principal := principalFrom(c)

	if id := c.Query("document_id"); id != "" {
		doc, err := h.service.Get(c.Request.Context(), id, principal)
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, doc)
		return
	}

	if path := c.Query("path"); path != "" {
		doc, err := h.service.GetByPath(c.Request.Context(), path, principal)
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, doc)
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

	newVersion, err := h.service.Update(c.Request.Context(), form.ID, form.Update, form.Version, principalFrom(c))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": form.ID, "version": newVersion})
}

func (h *Handler) Delete(c *gin.Context) {
	cascade := c.Query("cascade") == "true"

	if err := h.service.Delete(c.Request.Context(), c.Param("id"), cascade, principalFrom(c)); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Document deleted successfully", "status": "success"})
}

func (h *Handler) Properties(c *gin.Context) {
	props, err := h.service.GetProperties(c.Request.Context(), c.Param("id"), principalFrom(c))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, props)
}

func (h *Handler) UpsertProperties(c *gin.Context) {
	var form PropsUpdate
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.Validation(err))
		return
	}

	if err := h.service.UpsertProperties(c.Request.Context(), c.Param("id"), form, principalFrom(c)); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Properties updated successfully", "status": "success"})
}
