package router

import (
	"github.com/sanye891/next-dashboard/internal/blob"
	"github.com/sanye891/next-dashboard/internal/config"
	"github.com/sanye891/next-dashboard/internal/handler"
	"github.com/sanye891/next-dashboard/internal/middleware"
	"github.com/sanye891/next-dashboard/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Dependencies bundles everything the routes need, constructed once in main.
type Dependencies struct {
	DB   *gorm.DB
	Blob *blob.Client
	Feed *store.Feed
	Log  *logrus.Logger
}

// SetupRouter configures the Gin engine and the API route table.
func SetupRouter(cfg *config.Config, deps Dependencies) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.AccessLog(deps.Log), corsMiddleware())

	saleStore := store.NewSaleStore(deps.DB, deps.Feed)
	fileStore := store.NewFileStore(deps.DB, deps.Feed)
	profileStore := store.NewProfileStore(deps.DB)

	// ====== API ======
	api := r.Group("/api")

	jwtSecret := cfg.JWT.Secret
	authHandler := handler.NewAuthHandler(deps.DB, jwtSecret, cfg.JWT.Issuer, cfg.JWT.ExpireHours, cfg.Security.BcryptCost)
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(jwtSecret, deps.DB))

	protected.POST("/auth/logout", authHandler.Logout)
	protected.GET("/me", handler.GetMe)

	saleHandler := handler.NewSaleHandler(saleStore)
	protected.GET("/sales", saleHandler.ListSales)
	protected.POST("/sales", saleHandler.CreateSale)
	protected.PUT("/sales/:id", saleHandler.UpdateSale)
	protected.DELETE("/sales/:id", saleHandler.DeleteSale)

	chartHandler := handler.NewChartHandler(saleStore)
	protected.GET("/sales/chart", chartHandler.GetSeries)

	importHandler := handler.NewImportHandler(saleStore, cfg.App.MaxUploadBytes())
	protected.POST("/import/parse", importHandler.ParseFile)
	protected.POST("/import/commit", importHandler.CommitBatch)

	fileHandler := handler.NewFileHandler(deps.Blob, fileStore, deps.Log, cfg.Storage.Buckets, cfg.App.MaxUploadBytes())
	protected.POST("/files", fileHandler.Upload)
	protected.GET("/files", fileHandler.List)
	protected.GET("/files/:id/download", fileHandler.Download)
	protected.PUT("/files/:id", fileHandler.UpdateCategory)
	protected.DELETE("/files/:id", fileHandler.Delete)
	protected.GET("/storage/objects", fileHandler.ListObjects)
	protected.POST("/storage/objects", fileHandler.UploadObject)

	profileHandler := handler.NewProfileHandler(profileStore, deps.Blob, deps.Log, cfg.Storage.Buckets, cfg.App.MaxAvatarBytes())
	protected.GET("/profile", profileHandler.GetProfile)
	protected.PUT("/profile", profileHandler.UpdateProfile)
	protected.POST("/profile/avatar", profileHandler.UploadAvatar)
	protected.POST("/profile/password", handler.ChangePassword(deps.DB))

	exportHandler := handler.NewExportHandler(deps.DB)
	protected.GET("/export/csv", exportHandler.ExportCSV)
	protected.GET("/export/xlsx", exportHandler.ExportXLSX)

	eventsHandler := handler.NewEventsHandler(deps.Feed)
	protected.GET("/events/:table", eventsHandler.Stream)

	return r
}

// corsMiddleware adapts rs/cors to gin.
func corsMiddleware() gin.HandlerFunc {
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
	})
	return func(ctx *gin.Context) {
		c.HandlerFunc(ctx.Writer, ctx.Request)
		if ctx.Request.Method == "OPTIONS" {
			ctx.AbortWithStatus(204)
			return
		}
		ctx.Next()
	}
}
