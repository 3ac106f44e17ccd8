package server

import (
	"net/http"
	"os"
	"path"
	"path/filepath"

	"storefront/internal/apperr"
	"storefront/internal/gateway"

	"github.com/gin-gonic/gin"
)

func (s *Server) RegisterRoutes() http.Handler {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(gateway.RequestIDMiddleware())
	r.Use(gateway.LoggingMiddleware())
	if s.metrics != nil {
		r.Use(gateway.MetricsMiddleware(s.metrics))
	}
	r.Use(gateway.CORSMiddleware(s.cfg.AllowedOrigins))

	r.GET("/health", s.healthHandler)
	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	r.POST("/register", s.accounts.Register)
	r.POST("/login", s.accounts.Login)
	r.GET("/user", gateway.BearerAuth(s.verifier, s.metrics), s.accounts.Me)

	r.POST("/checkout", s.checkout.Checkout)

	r.NoRoute(s.staticHandler())

	return r
}

func (s *Server) healthHandler(c *gin.Context) {
	response := gin.H{"status": "up"}
	status := http.StatusOK

	if s.db != nil {
		dbHealth := s.db.Health()
		response["database"] = dbHealth
		if dbHealth["status"] != "up" {
			response["status"] = "down"
			status = http.StatusServiceUnavailable
		}
	}

	c.JSON(status, response)
}

// staticHandler serves files from the configured directory for GET and HEAD
// requests that matched no API route. Directory listings are disabled.
func (s *Server) staticHandler() gin.HandlerFunc {
	dir := s.cfg.StaticDir
	files := http.FileServer(gin.Dir(dir, false))

	return func(c *gin.Context) {
		method := c.Request.Method
		if dir != "" && (method == http.MethodGet || method == http.MethodHead) && staticExists(dir, c.Request.URL.Path) {
			files.ServeHTTP(c.Writer, c.Request)
			return
		}
		apperr.Respond(c, apperr.NotFound("route not found", nil))
	}
}

func staticExists(dir, urlPath string) bool {
	name := filepath.Join(dir, filepath.FromSlash(path.Clean("/"+urlPath)))
	info, err := os.Stat(name)
	if err != nil {
		return false
	}
	if info.IsDir() {
		_, err = os.Stat(filepath.Join(name, "index.html"))
		return err == nil
	}
	return true
}
