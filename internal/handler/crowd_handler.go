package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jengzang/route-planner-go/internal/service"
	"github.com/jengzang/route-planner-go/pkg/response"
)

// CrowdHandler handles HTTP requests for road crowd levels
type CrowdHandler struct {
	crowdService *service.CrowdService
}

// NewCrowdHandler creates a new crowd handler
func NewCrowdHandler(crowdService *service.CrowdService) *CrowdHandler {
	return &CrowdHandler{
		crowdService: crowdService,
	}
}

// RefreshCrowdLevel handles POST /api/v1/osm/refreshCrowdLevel
func (h *CrowdHandler) RefreshCrowdLevel(c *gin.Context) {
	updates, err := h.crowdService.Refresh(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{
		"updated": len(updates),
	})
}
