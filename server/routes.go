package server

import (
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("GET "+RouteHealth, ChainMiddleware(s.HealthHandler(), s.StdMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteMetrics, promhttp.Handler())

	s.RegisterRouteFunc("GET "+RouteAuthStart, ChainMiddleware(s.StartHandler(), s.AuthMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteAuthCallback, ChainMiddleware(s.CallbackHandler(), s.AuthMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteAuthCallback, ChainMiddleware(s.CallbackHandler(), s.AuthMiddleware()...)) // For form_post response mode
	s.RegisterRouteFunc("POST "+RouteAuthRefresh, ChainMiddleware(s.RefreshHandler(), s.AuthMiddleware()...))
}
