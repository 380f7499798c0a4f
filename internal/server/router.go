package server

import (
	"html/template"

	"github.com/gin-gonic/gin"
)

// NewRouter wires the page, the JSON API and the WebSocket endpoint.
func NewRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(h.log))
	router.SetHTMLTemplate(template.Must(template.New("page").Parse(pageTemplate)))

	router.GET("/", h.Page)

	api := router.Group("/v1")
	{
		api.GET("/timeframes", h.Timeframes)
		api.GET("/series/:timeframe", h.Series)
		api.GET("/display/:timeframe", h.Display)
		api.GET("/chart/:timeframe", h.Chart)
		api.GET("/history", h.History)
		api.POST("/refresh", h.Refresh)
		api.GET("/ws", h.WebSocket)
	}
	return router
}
