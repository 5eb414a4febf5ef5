package api

import (
	"log"
	stdhttp "net/http"

	intconfig "teleferico/internal/config"
	h "teleferico/internal/http/handlers"
	"teleferico/internal/http/middleware"

	"github.com/easonlin404/limit"
	"github.com/gin-gonic/gin"
)

func NewRouter(env intconfig.Env, hs *h.Handlers) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logger(),
		gin.Recovery(),
		middleware.CORS(env.CORSOrigins),
		limit.Limit(env.MaxInflight),
	)

	if err := r.SetTrustedProxies(nil); err != nil {
		log.Printf("warning: failed to set trusted proxies: %v", err)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route tidak ditemukan",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	operator := []gin.HandlerFunc{}
	if env.OperatorAuthEnabled() {
		operator = append(operator,
			middleware.OperatorAuth([]byte(env.JWTSecret)),
			middleware.RequireRoles(middleware.RoleOperator),
		)
	} else {
		log.Println("warning: JWT_SECRET kosong, endpoint operator tanpa autentikasi")
	}
	guarded := func(handler gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, operator...), handler)
	}

	api := r.Group("/api")
	{
		api.GET("/health", hs.Health)
		api.GET("/routes", h.Routes)

		// Riders
		riders := api.Group("/riders")
		riders.GET("", hs.ListRiders)
		riders.GET("/:id", hs.GetRider)
		riders.POST("", hs.CreateRider)

		// Cabins
		cabins := api.Group("/cabins")
		cabins.GET("", hs.ListCabins)
		cabins.GET("/:id", hs.GetCabin)
		cabins.GET("/:id/manifest", hs.GetCabinManifestPDF)
		cabins.POST("", guarded(hs.CreateCabin)...)
		cabins.DELETE("/:id", guarded(hs.DeleteCabin)...)
		cabins.POST("/:id/start", guarded(hs.StartCabinTrip)...)
		cabins.DELETE("/:id/passengers/:riderId", guarded(hs.DisembarkRider)...)

		// Trips
		trips := api.Group("/trips")
		trips.POST("", hs.RequestTrip)
		trips.GET("/log", hs.GetTripLog)
	}

	h.SetRouter(r)
	return r
}
