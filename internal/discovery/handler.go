package discovery

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

type CreateFileRequest struct {
	ClientID      string `json:"client_id" binding:"required"`
	DiscoveryType string `json:"discovery_type" binding:"required"`
	ServiceDate   string `json:"service_date" binding:"required"`
	DueDate       string `json:"due_date"`
	PartyName     string `json:"party_name" binding:"required"`
}

func (h *Handler) CreateFile(c *gin.Context) {
	var form CreateFileRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.Validation(err))
		return
	}

	created, err := h.service.CreateFile(c.Request.Context(), &DiscoveryFile{
		ClientID:      form.ClientID,
		DiscoveryType: form.DiscoveryType,
		ServiceDate:   form.ServiceDate,
		DueDate:       form.DueDate,
		PartyName:     form.PartyName,
	}, principalFrom(c))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (h *Handler) ShowFile(c *gin.Context) {
	fileID := c.Query("file_id")
	if fileID == "" {
		c.Error(errors.MissingSearchParameter())
		return
	}

	file, err := h.service.GetFile(c.Request.Context(), fileID, principalFrom(c))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, file)
}

// FilesForClient lists a client's files with request/response counts.
func (h *Handler) FilesForClient(c *gin.Context) {
	clientID := c.Query("client_id")
	if clientID == "" {
		c.Error(errors.MissingSearchParameter())
		return
	}

	summaries, err := h.service.GetFilesForClient(c.Request.Context(), clientID, principalFrom(c))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, summaries)
}

type UpdateFileRequest struct {
	ID      string `json:"id" binding:"required"`
	Version string `json:"version" binding:"required"`
	FileUpdate
}

func (h *Handler) UpdateFile(c *gin.Context) {
	var form UpdateFileRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.Validation(err))
		return
	}

	newVersion, err := h.service.UpdateFile(c.Request.Context(), form.ID, form.FileUpdate, form.Version, principalFrom(c))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": form.ID, "version": newVersion})
}

func (h *Handler) DeleteFile(c *gin.Context) {
	deleted, err := h.service.DeleteFile(c.Request.Context(), c.Param("id"), principalFrom(c))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":          "Discovery file deleted successfully",
		"status":           "success",
		"requests_deleted": deleted,
	})
}

type CreateRequestRequest struct {
	FileID                    string   `json:"file_id" binding:"required"`
	RequestNumber             int      `json:"request_number" binding:"required"`
	RequestText               string   `json:"request_text" binding:"required"`
	LookbackDate              string   `json:"lookback_date"`
	Interpretations           []string `json:"interpretations"`
	Privileges                []string `json:"privileges"`
	Objections                []string `json:"objections"`
	Response                  string   `json:"response"`
	ResponsiveClassifications []string `json:"responsive_classifications"`
}

func (h *Handler) CreateRequest(c *gin.Context) {
	var form CreateRequestRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.Validation(err))
		return
	}

	created, err := h.service.CreateRequest(c.Request.Context(), &DiscoveryRequest{
		FileID:                    form.FileID,
		RequestNumber:             form.RequestNumber,
		RequestText:               form.RequestText,
		LookbackDate:              form.LookbackDate,
		Interpretations:           form.Interpretations,
		Privileges:                form.Privileges,
		Objections:                form.Objections,
		Response:                  form.Response,
		ResponsiveClassifications: form.ResponsiveClassifications,
	}, principalFrom(c))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (h *Handler) ShowRequest(c *gin.Context) {
	requestID := c.Query("request_id")
	if requestID == "" {
		c.Error(errors.MissingSearchParameter())
		return
	}

	request, err := h.service.GetRequest(c.Request.Context(), requestID, principalFrom(c))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, request)
}

func (h *Handler) RequestsForFile(c *gin.Context) {
	fileID := c.Query("file_id")
	if fileID == "" {
		c.Error(errors.MissingSearchParameter())
		return
	}

	requests, err := h.service.GetRequestsForFile(c.Request.Context(), fileID, principalFrom(c))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, requests)
}

type UpdateRequestRequest struct {
	ID      string `json:"id" binding:"required"`
	Version string `json:"version" binding:"required"`
	RequestUpdate
}

func (h *Handler) UpdateRequest(c *gin.Context) {
	var form UpdateRequestRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.Validation(err))
		return
	}

	newVersion, err := h.service.UpdateRequest(c.Request.Context(), form.ID, form.RequestUpdate, form.Version, principalFrom(c))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": form.ID, "version": newVersion})
}

func (h *Handler) DeleteRequest(c *gin.Context) {
	if err := h.service.DeleteRequest(c.Request.Context(), c.Param("id"), principalFrom(c)); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Discovery request deleted successfully", "status": "success"})
}

func (h *Handler) ServiceList(c *gin.Context) {
	clientID := c.Query("client_id")
	if clientID == "" {
		c.Error(errors.MissingSearchParameter())
		return
	}

	entries, err := h.service.GetRequestServiceList(c.Request.Context(), clientID, principalFrom(c))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, entries)
}
