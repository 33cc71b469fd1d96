package router

import (
	"context"
	"net/http"

	"wayfare/config"
	"wayfare/internal/cache"
	"wayfare/internal/handler"
	"wayfare/internal/middleware"
	"wayfare/internal/repository"
	"wayfare/internal/service"
	"wayfare/internal/store"
	"wayfare/internal/ws"
	"wayfare/pkg/cloudinary"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// Deps are the process-wide clients built in main. Geocoder and Cloud may be
// nil when the integration is disabled.
type Deps struct {
	DB       *gorm.DB
	Cache    cache.Cache
	Geocoder service.Geocoder
	Cloud    cloudinary.Client
	Limiter  *middleware.InMemoryRateLimiter
}

func Setup(cfg *config.Config, d Deps) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	if cfg.Metrics.Enabled {
		r.Use(middleware.Metrics())
	}
	if d.Limiter != nil {
		r.Use(middleware.RateLimit(d.Limiter))
	}

	// Repositories
	db := d.DB
	userRepo := repository.NewUserRepository(db)
	placeRepo := repository.NewPlaceRepository(db)
	tagRepo := repository.NewTagRepository(db)
	photoRepo := repository.NewPhotoRepository(db)
	prefRepo := repository.NewPreferenceRepository(db)
	listRepo := repository.NewListRepository(db)
	listPlaceRepo := repository.NewListPlaceRepository(db)
	locationRepo := repository.NewListLocationRepository(db)
	savedRepo := repository.NewSavedListRepository(db)
	ratingRepo := repository.NewListRatingRepository(db)
	adminRepo := repository.NewAdminRepository(db)
	tx := store.NewTransactor(db)

	// Services
	authSvc := service.NewAuthService(cfg, userRepo)
	exploreSvc := service.NewExploreService(placeRepo, prefRepo, d.Cache, cfg.Cache.TTL)
	placeSvc := service.NewPlaceService(placeRepo, exploreSvc, d.Geocoder)
	listSvc := service.NewListService(service.ListDeps{
		Tx:         tx,
		Lists:      listRepo,
		ListPlaces: listPlaceRepo,
		Locations:  locationRepo,
		Places:     placeRepo,
		Saved:      savedRepo,
		Ratings:    ratingRepo,
	})
	importSvc := service.NewImportService(tx, placeRepo, listSvc, d.Geocoder)
	feedSvc := service.NewFeedService(tx, prefRepo, placeRepo, tagRepo)
	photoSvc := service.NewPhotoService(photoRepo, placeRepo, d.Cloud, cfg.Cloudinary.Folder)

	mapHub := ws.NewMapHub(exploreSvc)
	placeSvc.OnChange(mapHub.PlacesChanged)
	placesImported := func() {
		exploreSvc.Invalidate(context.Background())
		mapHub.PlacesChanged()
	}

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	googleOAuthHandler := handler.NewGoogleOAuthHandler(&cfg.OAuth, authSvc)
	exploreHandler := handler.NewExploreHandler(exploreSvc, &cfg.Map)
	placeHandler := handler.NewPlaceHandler(placeSvc, placeRepo)
	photoHandler := handler.NewPhotoHandler(photoSvc)
	tagHandler := handler.NewTagHandler(tagRepo)
	listHandler := handler.NewListHandler(listSvc, importSvc)
	importHandler := handler.NewImportHandler(importSvc, placesImported)
	meHandler := handler.NewMeHandler(userRepo, listSvc, feedSvc)
	adminHandler := handler.NewAdminHandler(adminRepo, authSvc, listSvc, exploreSvc, mapHub)

	authMw := middleware.AuthRequired(&cfg.JWT)
	optionalMw := middleware.OptionalAuth(&cfg.JWT)
	adminMw := middleware.AdminRequired()

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.GET("/google", googleOAuthHandler.Redirect)
			authGroup.GET("/google/callback", googleOAuthHandler.Callback)
			authGroup.POST("/google/token", googleOAuthHandler.Token)
		}

		api.GET("/config/map", exploreHandler.MapConfig)

		mapGroup := api.Group("/map")
		mapGroup.Use(optionalMw)
		{
			mapGroup.GET("/visible-types", exploreHandler.VisibleTypes)
			mapGroup.GET("/places", exploreHandler.Places)
			mapGroup.GET("/nearby", exploreHandler.Nearby)
		}

		places := api.Group("/places")
		{
			places.GET("", placeHandler.Search)
			places.GET("/:id", placeHandler.Get)
			places.GET("/:id/photos", photoHandler.List)
			places.POST("/:id/photos", authMw, photoHandler.Upload)
			places.DELETE("/:id/photos/:photo_id", authMw, photoHandler.Delete)
			places.POST("", authMw, adminMw, placeHandler.Create)
			places.PATCH("/:id", authMw, adminMw, placeHandler.Update)
			places.DELETE("/:id", authMw, adminMw, placeHandler.Delete)
		}

		api.GET("/tags", optionalMw, tagHandler.List)
		api.POST("/tags", authMw, adminMw, tagHandler.Create)

		lists := api.Group("/lists")
		{
			lists.GET("", optionalMw, listHandler.Public)
			lists.GET("/slug/:slug/exists", listHandler.SlugExists)
			lists.GET("/:id", optionalMw, listHandler.Get)
			lists.GET("/:id/places", optionalMw, listHandler.Places)
			lists.GET("/:id/route", optionalMw, listHandler.Route)
			lists.GET("/:id/center", optionalMw, listHandler.Center)
			lists.GET("/:id/export.xlsx", optionalMw, listHandler.Export)

			lists.POST("", authMw, listHandler.Create)
			lists.PATCH("/:id", authMw, listHandler.Update)
			lists.DELETE("/:id", authMw, listHandler.Delete)
			lists.POST("/:id/places", authMw, listHandler.AddPlace)
			lists.DELETE("/:id/places/:place_id", authMw, listHandler.RemovePlace)
			lists.PUT("/:id/places/order", authMw, listHandler.Reorder)
			lists.POST("/:id/save", authMw, listHandler.Save)
			lists.DELETE("/:id/save", authMw, listHandler.Unsave)
			lists.POST("/:id/rate", authMw, listHandler.Rate)
		}

		me := api.Group("/me")
		me.Use(authMw)
		{
			me.GET("", meHandler.Profile)
			me.PUT("/password", authHandler.ChangePassword)
			me.GET("/lists", meHandler.Lists)
			me.GET("/saved-lists", meHandler.SavedLists)
			me.GET("/preferences", meHandler.Preferences)
			me.GET("/feed", meHandler.Feed)
			me.POST("/follow/tags/:tag_id", meHandler.FollowTag)
			me.DELETE("/follow/tags/:tag_id", meHandler.UnfollowTag)
			me.POST("/follow/places/:place_id", meHandler.FollowPlace)
			me.DELETE("/follow/places/:place_id", meHandler.UnfollowPlace)
		}

		api.POST("/admin/login", adminHandler.AdminLogin)
		admin := api.Group("/admin")
		admin.Use(authMw, adminMw)
		{
			admin.GET("/dashboard", adminHandler.Dashboard)
			admin.GET("/analytics", adminHandler.Analytics)
			admin.GET("/users", adminHandler.ListUsers)
			admin.PATCH("/users/:id/role", adminHandler.SetUserRole)
			admin.POST("/lists/:id/recompute-center", adminHandler.RecomputeCenter)
			admin.POST("/catalog/reload", adminHandler.ReloadCatalog)
			admin.POST("/import/lists", importHandler.ImportJSON)
			admin.POST("/import/lists.xlsx", importHandler.ImportXLSX)
		}

		api.GET("/ws/map", ws.UpgradeMapWS(&cfg.JWT, mapHub))
	}

	return r
}
