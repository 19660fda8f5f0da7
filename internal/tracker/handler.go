package tracker

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
	ID           string   `json:"id"`
	Name         string   `json:"name" binding:"required,min=1,max=255"`
	ClientID     string   `json:"client_id" binding:"required"`
	BatesPattern string   `json:"bates_pattern"`
	Documents    []string `json:"documents"`
}

func (h *Handler) Create(c *gin.Context) {
	var form CreateRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.Validation(err))
		return
	}

	created, err := h.service.Create(c.Request.Context(), &Tracker{
		ID:           form.ID,
		Name:         form.Name,
		ClientID:     form.ClientID,
		BatesPattern: form.BatesPattern,
		Documents:    form.Documents,
	}, principalFrom(c))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// Show returns one tracker by id, a client's trackers by client_id, or every
// tracker visible to a username.
func (h *Handler) Show(c *gin.Context) {
	principal := principalFrom(c)

	if id := c.Query("tracker_id"); id != "" {
		tracker, err := h.service.Get(c.Request.Context(), id, principal)
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, tracker)
		return
	}

	if clientID := c.Query("client_id"); clientID != "" {
		trackers, err := h.service.GetByClient(c.Request.Context(), clientID, principal)
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, trackers)
		return
	}

	if username := c.Query("username"); username != "" {
		trackers, err := h.service.GetForUser(c.Request.Context(), username, principal)
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, trackers)
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
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), principalFrom(c)); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Tracker deleted successfully", "status": "success"})
}

func (h *Handler) LinkDocument(c *gin.Context) {
	trackerID := c.Param("id")
	documentID := c.Param("documentId")

	changed, err := h.service.LinkDocument(c.Request.Context(), trackerID, documentID, principalFrom(c))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Document " + documentID + " added to tracker " + trackerID,
		"status":    "success",
		"no_change": !changed,
	})
}

func (h *Handler) UnlinkDocument(c *gin.Context) {
	trackerID := c.Param("id")
	documentID := c.Param("documentId")

	changed, err := h.service.UnlinkDocument(c.Request.Context(), trackerID, documentID, principalFrom(c))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Document " + documentID + " removed from tracker " + trackerID,
		"status":    "success",
		"no_change": !changed,
	})
}

func (h *Handler) Documents(c *gin.Context) {
	rows, err := h.service.GetDocuments(c.Request.Context(), c.Param("id"), principalFrom(c))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, rows)
}

func (h *Handler) Categories(c *gin.Context) {
	categories, err := h.service.GetCategories(c.Request.Context(), c.Param("id"), principalFrom(c))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, categories)
}

func (h *Handler) CategoryPairs(c *gin.Context) {
	pairs, err := h.service.GetCategoryPairs(c.Request.Context(), c.Param("id"), principalFrom(c))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, pairs)
}

func (h *Handler) Dataset(c *gin.Context) {
	dataset := DatasetName(c.Param("dataset"))

	response, err := h.service.GetDataset(c.Request.Context(), c.Param("id"), dataset, principalFrom(c))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *Handler) ComplianceMatrix(c *gin.Context) {
	classification := c.Query("classification")
	if classification == "" {
		c.Error(errors.BadRequest("Must specify classification", nil))
		return
	}

	matrix, err := h.service.GetComplianceMatrix(c.Request.Context(), c.Param("id"), classification, principalFrom(c))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, matrix)
}
