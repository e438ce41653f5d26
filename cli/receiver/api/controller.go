package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

type Controller struct {
	Handler *Handler
	router  *gin.Engine
}

func NewController(handler *Handler, apiKeys []ApiKey) *Controller {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.POST("/gps", handler.SaveGPS)
	router.GET("/history", handler.GetHistory)
	router.GET("/stability", handler.GetStability)

	sessions := router.Group("/sessions", RequireApiKey(apiKeys))
	{
		sessions.POST("/:id/base", handler.UpdateBase)
	}

	return &Controller{Handler: handler, router: router}
}

func (c *Controller) Router() http.Handler {
	return c.router
}

func (c *Controller) Run(address string) error {
	return c.router.Run(address)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(log.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}).Debug("[API] Запрос обработан")
	}
}
