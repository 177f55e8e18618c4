package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dfryer1193/gogallery/internal/metrics"
)

// NewApi mounts the gallery routes on router.
func NewApi(router *gin.Engine, service ImageService, m *metrics.Metrics, gatherer prometheus.Gatherer) {
	images := NewImagesHandler(service, m)

	imagesApi := router.Group("api/images")
	{
		imagesApi.GET("", images.ListImages)
		imagesApi.POST("", images.CreateImage)
		imagesApi.GET("/:id", images.GetImage)
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
}
