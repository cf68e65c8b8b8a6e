package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"hexaosint/api/internal/service"
)

type textSearchRequest struct {
	Name       string   `json:"name" binding:"required"`
	Categories []string `json:"categories" binding:"required,min=1"`
	Country    string   `json:"country"`
	Engine     string   `json:"engine"`
}

func (h HandlerSet) TextSearch(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req textSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "detail": err.Error()})
		return
	}

	results, err := h.targets.TextSearch(c.Request.Context(), user.ID, service.TextSearchInput{
		Name:       req.Name,
		Categories: req.Categories,
		Country:    req.Country,
		Engine:     req.Engine,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed"})
			return
		}
		h.internalError(c, err, "text search failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Success",
		"data":    results,
		"total":   len(results),
	})
}

func (h HandlerSet) ImageSearchSend(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image_file_required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.internalError(c, err, "open uploaded image failed")
		return
	}
	defer file.Close()

	result, err := h.targets.ImageSend(c.Request.Context(), user.ID, fileHeader.Filename, file)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrImageUnsupported):
			c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported_image_type"})
		case errors.Is(err, service.ErrImageTooLarge):
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image_too_large"})
		default:
			h.internalError(c, err, "image send failed")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "success",
		"message":  "success",
		"idSearch": result.IDSearch,
	})
}

type imageReceiveRequest struct {
	IDSearch string `json:"idSearch" binding:"required"`
	Demo     bool   `json:"demo"`
}

func (h HandlerSet) ImageSearchReceive(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}

	var req imageReceiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "detail": err.Error()})
		return
	}

	status, err := h.targets.ImageReceive(c.Request.Context(), req.IDSearch, req.Demo)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed"})
			return
		}
		h.internalError(c, err, "image receive failed")
		return
	}

	c.JSON(http.StatusOK, status)
}
