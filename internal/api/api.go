package api

import (
	voiceCallHandler "call-bridge/internal/voicecall/handler"
	"net/http"

	"github.com/gin-gonic/gin"
)

type API struct {
	router           *gin.RouterGroup
	voiceCallHandler *voiceCallHandler.Handler
}

func New(router *gin.RouterGroup, voiceCallHandler *voiceCallHandler.Handler) API {
	return API{
		router:           router,
		voiceCallHandler: voiceCallHandler,
	}
}

func (a *API) RegisterRoutes() {
	a.Health()
	apiGroup := a.router.Group("/api")
	{
		phoneGroup := apiGroup.Group("/phone")
		phoneGroup.POST("/incoming-call", a.voiceCallHandler.HandleIncomingCall)
		phoneGroup.GET("/media-stream/:callSid", a.voiceCallHandler.HandleMediaStream)
		phoneGroup.GET("/sessions", a.voiceCallHandler.HandleListSessions)
		phoneGroup.GET("/sessions/:id", a.voiceCallHandler.HandleGetSession)
	}
}

func (a *API) Health() {
	a.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})
}
