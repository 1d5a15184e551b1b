package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cuongbtq/docsummary/internal/api/handler"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	// Health check endpoint: probes the database and reports broker state
	r.GET("/health", func(c *gin.Context) {
		dbStatus := "up"
		mqStatus := "up"
		code := http.StatusOK

		if err := deps.DB.HealthCheck(c.Request.Context()); err != nil {
			dbStatus = "down"
			code = http.StatusServiceUnavailable
		}
		if !deps.Publisher.IsConnected() {
			mqStatus = "down"
			code = http.StatusServiceUnavailable
		}

		status := "healthy"
		if code != http.StatusOK {
			status = "degraded"
		}

		c.JSON(code, gin.H{
			"status":   status,
			"service":  "docsummary-api",
			"database": dbStatus,
			"rabbitmq": mqStatus,
		})
	})

	docHandler := handler.NewDocumentHandler(deps)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		documents := v1.Group("/documents")
		{
			// POST /api/v1/documents/process - synchronous OCR + summary
			documents.POST("/process", docHandler.ProcessDocument)

			// POST /api/v1/documents - create a job for async processing
			documents.POST("", docHandler.CreateDocument)

			// PUT /api/v1/documents/:job_id/content - upload document bytes
			documents.PUT("/:job_id/content", docHandler.UploadContent)

			// GET /api/v1/documents/:job_id/result - poll the job outcome
			documents.GET("/:job_id/result", docHandler.GetResult)
		}
	}

	return r
}
