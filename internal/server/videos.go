package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	videodomain "github.com/rushi-018/saas-imaging/internal/video/domain"
)

func (s *Server) ListVideos(c *gin.Context) {
	resp, err := s.videoSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UploadVideo(c *gin.Context) {
	var req videodomain.UploadVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.videoSvc.Upload(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) GetVideo(c *gin.Context) {
	videoID, err := idParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.videoSvc.Get(c.Request.Context(), videoID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteVideo(c *gin.Context) {
	videoID, err := idParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.videoSvc.Delete(c.Request.Context(), videoID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
