package bot

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"taxidispatch/pkg/logger"
	"taxidispatch/pkg/models"
	"taxidispatch/storage"
)

// RunServer exposes read-only aggregates for the reporting dashboard. It
// reads the store directly and never mutates anything.
func RunServer(stg storage.IStorage, log logger.ILogger, port int) error {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	// CORS
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.GET("/stats", func(c *gin.Context) {
			counts, err := stg.Order().CountByStatus(c.Request.Context())
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			total := 0
			for _, n := range counts {
				total += n
			}
			c.JSON(http.StatusOK, gin.H{
				"total":     total,
				"new":       counts[models.StatusNew],
				"accepted":  counts[models.StatusAccepted],
				"completed": counts[models.StatusCompleted],
			})
		})

		api.GET("/drivers/top", func(c *gin.Context) {
			limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
			if err != nil || limit < 1 {
				limit = 10
			}
			drivers, err := stg.Driver().GetTop(c.Request.Context(), limit)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, drivers)
		})

		api.GET("/drivers/:id/orders", func(c *gin.Context) {
			id, err := strconv.ParseInt(c.Param("id"), 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "bad driver id"})
				return
			}
			orders, err := stg.Order().GetDriverOrders(c.Request.Context(), id)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, orders)
		})
	}

	return r.Run(fmt.Sprintf(":%d", port))
}
