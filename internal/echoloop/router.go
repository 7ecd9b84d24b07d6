package echoloop

import (
	"net/http"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/kiosk404/echoloop/internal/echoloop/handler/middleware"
	v1 "github.com/kiosk404/echoloop/internal/echoloop/handler/v1"
	"github.com/kiosk404/echoloop/internal/echoloop/options"
	activityService "github.com/kiosk404/echoloop/internal/echoloop/service/activity/domain/service"
	llmService "github.com/kiosk404/echoloop/internal/echoloop/service/llm/domain/service"
	genericoptions "github.com/kiosk404/echoloop/internal/pkg/options"
	"github.com/kiosk404/echoloop/pkg/version"
)

// routerDeps holds the dependencies needed for route registration.
type routerDeps struct {
	activityService activityService.ActivityService
	llmManager      llmService.ModelManager
	serverOptions   *genericoptions.ServerOptions
	authOptions     *options.AuthOptions
}

func initRouter(g *gin.Engine, deps *routerDeps) {
	installMiddleware(g, deps)
	installController(g, deps)
}

func installMiddleware(g *gin.Engine, deps *routerDeps) {
	g.Use(gin.Recovery())
	g.Use(middleware.RequestLogger())

	if deps.serverOptions.EnableCORS {
		g.Use(middleware.CORS())
	}
	if deps.authOptions != nil {
		g.Use(middleware.BearerAuth(deps.authOptions))
	}
}

func installController(g *gin.Engine, deps *routerDeps) {
	if deps.serverOptions.Healthz {
		g.GET("/healthz", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})
	}
	g.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, version.Get())
	})
	if deps.serverOptions.EnableProfiling {
		pprof.Register(g)
	}

	activityHandler := v1.NewActivityHandler(deps.activityService)
	toolSetHandler := v1.NewToolSetHandler(deps.activityService)
	modelHandler := v1.NewModelHandler(deps.llmManager)

	apiV1 := g.Group("/v1")
	{
		// Activities.
		apiV1.POST("/activities", activityHandler.Run)
		apiV1.POST("/activities/stream", activityHandler.Stream)
		apiV1.GET("/activities", activityHandler.List)
		apiV1.GET("/activities/:id", activityHandler.Get)
		apiV1.DELETE("/activities/:id", activityHandler.Delete)

		// Catalog.
		apiV1.GET("/toolsets", toolSetHandler.List)
		apiV1.GET("/limits", toolSetHandler.Limits)
		apiV1.GET("/models", modelHandler.List)
	}
}
