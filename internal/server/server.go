// Package server wires the HTTP API: attendance uploads, the user directory,
// results and form submissions.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"schoolattend/internal/attendance"
	"schoolattend/internal/auth"
	"schoolattend/internal/cloudinary"
	"schoolattend/internal/config"
	"schoolattend/internal/directory"
	"schoolattend/internal/httpmiddleware"
	"schoolattend/internal/jobs"
	"schoolattend/internal/model"
	"schoolattend/internal/queue"
	"schoolattend/internal/results"
	"schoolattend/internal/store"
)

// Archiver keeps a copy of original uploads.
type Archiver interface {
	UploadRaw(ctx context.Context, data []byte, filename string) (*cloudinary.UploadResult, error)
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Healthy(ctx context.Context) bool
}

// Deps are the collaborators the API is built from. Queue, Jobs, Archive and
// Redis are optional.
type Deps struct {
	Config     config.App
	Store      store.Backend
	Attendance *attendance.Service
	Directory  *directory.Service
	Results    *results.Service
	Queue      queue.Queue
	Jobs       jobs.Tracker
	Archive    Archiver
	Redis      Pinger
	Log        *slog.Logger
}

type api struct {
	Deps
}

// NewRouter builds the gin engine serving every route.
func NewRouter(d Deps) *gin.Engine {
	if d.Log == nil {
		d.Log = slog.Default()
	}
	a := &api{Deps: d}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(cors.New(cors.Config{
		AllowOriginFunc:  func(string) bool { return true },
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
		MaxAge:           24 * time.Hour,
	}))
	r.Use(securityHeaders())
	r.Use(auth.Identify(d.Config.JWTSigningKey, d.Config.JWTIssuer))
	if d.Config.RateLimitPerMin > 0 {
		r.Use(httpmiddleware.NewSimpleTokenBucket(d.Config.RateLimitPerMin, d.Config.RateLimitPerMin).GinMiddleware())
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", a.health)

	r.POST("/submit", a.submit)
	r.POST("/attendance/upload-pdf", a.uploadAttendance)
	r.POST("/v1/sessions", a.createSession)

	authn := auth.Authenticate(d.Config.JWTSigningKey, d.Config.JWTIssuer)
	staff := auth.RequireRole(model.RoleTeacher, model.RoleAdmin)
	admin := auth.RequireRole(model.RoleAdmin)

	jobsGroup := r.Group("/attendance/upload-jobs", authn, staff)
	jobsGroup.POST("", a.enqueueUpload)
	jobsGroup.GET("/:id", a.getJob)

	v1 := r.Group("/v1", authn, staff)
	v1.GET("/attendance", a.listAttendance)
	v1.GET("/attendance/:id", a.getAttendance)
	v1.GET("/users", a.listUsers)
	v1.GET("/users/:id", a.getUser)
	v1.POST("/users", admin, a.createUser)
	v1.DELETE("/users/:id", admin, a.deleteUser)
	v1.POST("/results", a.createResult)
	v1.GET("/leaderboard", a.leaderboard)

	return r
}

func (a *api) health(c *gin.Context) {
	ctx := c.Request.Context()
	storeHealthy := a.Store.Ping(ctx) == nil
	body := gin.H{"status": "ok", "store": storeHealthy}
	healthy := storeHealthy
	if a.Redis != nil {
		redisHealthy := a.Redis.Healthy(ctx)
		body["redis"] = redisHealthy
		healthy = healthy && redisHealthy
	}
	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
		body["status"] = "degraded"
	}
	c.JSON(status, body)
}

func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}
