package valuation

import (
	"discovery-tracker-api/internal/errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	client *Client
}

func NewHandler(client *Client) *Handler {
	return &Handler{client: client}
}

// Property looks up description and valuation data for a street address
func (h *Handler) Property(c *gin.Context) {
	address := c.Query("address")
	city := c.Query("city")
	state := c.Query("state")
	zipCode := c.Query("zip_code")
	if address == "" || city == "" || state == "" || zipCode == "" {
		c.Error(errors.BadRequest("Must specify address, city, state and zip_code", nil))
		return
	}

	info, err := h.client.GetPropertyDetails(c.Request.Context(), address, city, state, zipCode)
	if err != nil {
		c.Error(errors.Internal(err))
		return
	}

	c.JSON(http.StatusOK, info)
}
