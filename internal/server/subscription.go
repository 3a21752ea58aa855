package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rushi-018/saas-imaging/internal/plan"
)

type checkoutRequest struct {
	Plan string `json:"plan" binding:"required"`
}

func (s *Server) GetSubscription(c *gin.Context) {
	resp, err := s.subscriptionSvc.Get(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateCheckout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	url, err := s.billingSvc.CreateCheckout(c.Request.Context(), plan.ID(strings.ToLower(strings.TrimSpace(req.Plan))))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"checkout_url": url}})
}

func (s *Server) CancelSubscription(c *gin.Context) {
	resp, err := s.subscriptionSvc.Cancel(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
