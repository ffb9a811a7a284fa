package http

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"go.ngs.io/tides/internal/usecase"
)

// SetupRouter creates and configures the Gin router. An empty allowedOrigins
// allows every origin.
func SetupRouter(predictionUC *usecase.PredictionUseCase, allowedOrigins []string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), LatencyMiddleware())

	corsConfig := cors.DefaultConfig()
	if len(allowedOrigins) > 0 {
		corsConfig.AllowOrigins = allowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	router.Use(cors.New(corsConfig))

	handler := NewHandler(predictionUC)

	v1 := router.Group("/v1")
	tides := v1.Group("/tides")
	tides.GET("/predictions", handler.GetPredictions)

	v1.GET("/constituents", handler.GetConstituentsList)
	v1.GET("/constituents/:name/decomposition", handler.GetDecomposition)

	router.GET("/health", handler.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}
