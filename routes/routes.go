package routes

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	config "github.com/phillip/chama-tracker-go/config"
	controllers "github.com/phillip/chama-tracker-go/controllers"
	middleware "github.com/phillip/chama-tracker-go/middleware"
	services "github.com/phillip/chama-tracker-go/services"
)

// NewRouter builds the engine with the shared middleware chain and every route.
func NewRouter(cfg *config.Config, l *services.Ledger, log *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestLogger(log), gin.Recovery(), middleware.CORS(cfg.CORSOrigins))
	SetupRoutes(r, cfg, l)
	return r
}

func SetupRoutes(r *gin.Engine, cfg *config.Config, l *services.Ledger) {
	r.GET("/healthz", controllers.Health(l))

	api := r.Group("/api")
	{
		// public
		api.GET("/data", controllers.GetData(l))
		api.GET("/summary", controllers.GetSummary(l))
		api.GET("/search-member", controllers.SearchMember(l))
	}

	// writes, guarded when JWT_SECRET is set
	writes := r.Group("/api")
	writes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	{
		writes.POST("/update-data", controllers.UpdateData(l))
		writes.POST("/add-contribution", controllers.AddContribution(l))
		writes.POST("/update-balance-sheet", controllers.UpdateBalanceSheet(l))
	}

	if cfg.EnableDebugRoutes {
		debug := r.Group("/api/debug")
		{
			debug.GET("/files", controllers.DebugFiles(l))
			debug.GET("/data", controllers.DebugData(l))
		}
	}
}
