package server

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/nverhoeven/taskpilot/clickup"
	"github.com/nverhoeven/taskpilot/graph"
	"github.com/nverhoeven/taskpilot/graph/drive"
	"github.com/nverhoeven/taskpilot/graph/mail"
	"github.com/nverhoeven/taskpilot/internal/config"
	"github.com/nverhoeven/taskpilot/internal/kvstore"
	"github.com/nverhoeven/taskpilot/internal/secrets"
	"github.com/nverhoeven/taskpilot/msauth"
	"github.com/nverhoeven/taskpilot/principal"
)

type Server struct {
	env    string // Environment (e.g., "DEV", "PROD")
	mux    *http.ServeMux
	routes []string
	config config.Config

	principals principal.Repo
	sealer     *secrets.Sealer
	msAuth     *msauth.Client
	clickup    *clickup.Client
	mail       *mail.Service
	drive      *drive.Service
}

func New(cfg config.Config, principals principal.Repo) (*Server, error) {
	sealer, err := secrets.NewSealer(cfg.GetSessionKey())
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to create token sealer: %w", err)
	}

	s := &Server{
		mux:        http.NewServeMux(),
		config:     cfg,
		principals: principals,
		sealer:     sealer,
	}
	s.env = cfg.GetEnv()

	tokenCache := kvstore.NewInMemoryStore()
	s.msAuth = msauth.New(cfg, tokenCache, s)

	graphClient := graph.New(cfg)
	s.clickup = clickup.New(cfg)
	s.mail = mail.NewService(graphClient)
	s.drive = drive.NewService(graphClient, kvstore.NewInMemoryStore())

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
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
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	log.Printf("[%-19s] %s\n", displayMethod, path)
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
