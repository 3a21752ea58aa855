package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	brandkitdomain "github.com/rushi-018/saas-imaging/internal/brandkit/domain"
)

func (s *Server) ListBrandKits(c *gin.Context) {
	resp, err := s.brandKitSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateBrandKit(c *gin.Context) {
	var req brandkitdomain.CreateBrandKitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.brandKitSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) GetBrandKit(c *gin.Context) {
	kitID, err := idParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.brandKitSvc.Get(c.Request.Context(), kitID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateBrandKit(c *gin.Context) {
	kitID, err := idParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req brandkitdomain.UpdateBrandKitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.brandKitSvc.Update(c.Request.Context(), kitID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteBrandKit(c *gin.Context) {
	kitID, err := idParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.brandKitSvc.Delete(c.Request.Context(), kitID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) UploadBrandKitLogo(c *gin.Context) {
	kitID, err := idParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req brandkitdomain.UploadLogoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.brandKitSvc.UploadLogo(c.Request.Context(), kitID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
