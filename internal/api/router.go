package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jengzang/route-planner-go/internal/config"
	"github.com/jengzang/route-planner-go/internal/handler"
	"github.com/jengzang/route-planner-go/internal/middleware"
)

// SetupRouter 设置路由，done 关闭后停止限流器的后台清理
func SetupRouter(cfg *config.Config, routes *handler.RouteHandler, crowd *handler.CrowdHandler, done <-chan struct{}) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger("/health"))

	// CORS 中间件
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Route Planner API is running",
		})
	})

	admin := middleware.RequireRole(cfg.JWTSecret, middleware.RoleAdmin)

	// API 路由组
	api := r.Group("/api/v1")
	api.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute, done))
	{
		// 路线规划接口
		route := api.Group("/route")
		{
			route.POST("/plan", routes.Plan)
			route.POST("/planMulti", routes.PlanMulti)
			route.GET("/stats", routes.Stats)
			route.POST("/rebuild", admin, routes.Rebuild)
		}

		// 道路拥挤度接口
		osm := api.Group("/osm")
		{
			osm.POST("/refreshCrowdLevel", admin, crowd.RefreshCrowdLevel)
		}
	}

	return r
}
