package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type scanResponse struct {
	ID         string         `json:"id"`
	SearchType string         `json:"searchType"`
	Engine     string         `json:"engine"`
	Query      string         `json:"query,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	SearchRef  string         `json:"searchRef,omitempty"`
	Status     string         `json:"status"`
	CreatedAt  time.Time      `json:"createdAt"`
}

func (h HandlerSet) ListScans(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	scans, err := h.targets.ListScans(c.Request.Context(), user.ID)
	if err != nil {
		h.internalError(c, err, "list scans failed")
		return
	}

	resp := make([]scanResponse, 0, len(scans))
	for _, scan := range scans {
		resp = append(resp, scanResponse{
			ID:         scan.ID,
			SearchType: string(scan.SearchType),
			Engine:     scan.Engine,
			Query:      scan.Query,
			Metadata:   scan.Metadata,
			SearchRef:  scan.SearchRef,
			Status:     string(scan.Status),
			CreatedAt:  scan.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"scans": resp, "total": len(resp)})
}
