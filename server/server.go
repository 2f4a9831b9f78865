package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-pkce-client/auth"
	"github.com/jrsteele09/go-pkce-client/flowstate"
	"github.com/jrsteele09/go-pkce-client/internal/config"
	"github.com/jrsteele09/go-pkce-client/token"
	"github.com/rs/zerolog/log"
)

const devEnv = "DEV"

type Server struct {
	env    string // Environment (e.g., "DEV", "PROD")
	mux    *http.ServeMux
	routes []string
	config config.Config
	auth   *auth.Service
	tokens *token.Client
	users  *token.Manager
}

// New wires the auth service, token client and token manager over the given stores.
func New(cfg config.Config, flows flowstate.Repo, store token.Store, clientOptions ...token.ClientOption) (*Server, error) {
	if store == nil {
		return nil, errors.New("[Server New] token store is required")
	}
	authService, err := auth.NewService(cfg, flows)
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to create auth service: %w", err)
	}
	policy, err := token.ParseRotationPolicy(cfg.GetRefreshRotation())
	if err != nil {
		return nil, fmt.Errorf("[Server New] %w", err)
	}

	tokenClient := token.NewClient(cfg, clientOptions...)
	s := &Server{
		env:    cfg.GetEnv(),
		mux:    http.NewServeMux(),
		config: cfg,
		auth:   authService,
		tokens: tokenClient,
		users: token.NewManager(tokenClient, store,
			token.WithRotationPolicy(policy),
			token.WithExpirySkew(cfg.GetExpirySkew()),
		),
	}

	s.initRoutes()
	s.logRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Manager exposes the token manager for the CLI.
func (s *Server) Manager() *token.Manager {
	return s.users
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != devEnv {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		method, path, found := strings.Cut(route, " ")
		if !found {
			method, path = "", route
		}
		log.Debug().Str("method", method).Str("path", path).Msg("route registered")
	}
}
