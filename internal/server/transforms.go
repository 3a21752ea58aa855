package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	transformdomain "github.com/rushi-018/saas-imaging/internal/transform/domain"
)

func (s *Server) ListTransforms(c *gin.Context) {
	videoID, err := idParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.transformSvc.List(c.Request.Context(), videoID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateTransform(c *gin.Context) {
	videoID, err := idParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req transformdomain.CreateTransformRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.transformSvc.Create(c.Request.Context(), videoID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) GetTransform(c *gin.Context) {
	transformID, err := idParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.transformSvc.Get(c.Request.Context(), transformID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteTransform(c *gin.Context) {
	transformID, err := idParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.transformSvc.Delete(c.Request.Context(), transformID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
