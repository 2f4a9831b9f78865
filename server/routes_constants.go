package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Authorization code flow
	RouteAuthStart    = "/auth/start"
	RouteAuthCallback = "/auth/callback"
	RouteAuthRefresh  = "/auth/refresh"

	// Operations
	RouteHealth  = "/healthz"
	RouteMetrics = "/metrics"
)
