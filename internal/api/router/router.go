package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bookbytes/backend/internal/api/handler"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		if deps.DBClient != nil {
			if err := deps.DBClient.HealthCheck(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":  "unhealthy",
					"service": "bookbytes-api",
				})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "bookbytes-api",
		})
	})

	jobHandler := handler.NewJobHandler(deps)
	processingHandler := handler.NewProcessingHandler(deps)

	v1 := r.Group("/api/v1")
	{
		jobs := v1.Group("/jobs")
		{
			// GET /api/v1/jobs - List jobs with filtering and pagination
			jobs.GET("", jobHandler.ListJobs)

			// GET /api/v1/jobs/stats - Queue depth for monitoring
			jobs.GET("/stats", jobHandler.JobStats)

			// GET /api/v1/jobs/:job_id - Job status polling
			jobs.GET("/:job_id", jobHandler.GetJob)

			// POST /api/v1/jobs/:job_id/retry - Schedule a failed job again
			jobs.POST("/:job_id/retry", jobHandler.RetryJob)
		}

		audiobooks := v1.Group("/audiobooks")
		{
			// POST /api/v1/audiobooks/process - Start audiobook generation
			audiobooks.POST("/process", processingHandler.Process)

			// POST /api/v1/audiobooks/:audio_book_id/refresh - Regenerate
			audiobooks.POST("/:audio_book_id/refresh", processingHandler.Refresh)

			// GET /api/v1/audiobooks/:audio_book_id/jobs - Processing history
			audiobooks.GET("/:audio_book_id/jobs", processingHandler.EntityJobs)

			// GET /api/v1/audiobooks/:audio_book_id/jobs/latest
			audiobooks.GET("/:audio_book_id/jobs/latest", processingHandler.EntityLatestJob)
		}
	}

	return r
}
