// Package server exposes table setup and seeding over HTTP so test harnesses
// written in other languages can prepare DynamoDB fixtures.
package server

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sicko7947/dynamotools"
)

// ToolsFactory returns Tools bound to tableName
type ToolsFactory func(tableName string) (*dynamotools.Tools, error)

// Server serves the fixture API
type Server struct {
	app     *fiber.App
	factory ToolsFactory
	plugin  dynamotools.DataCreatePlugin
	logger  zerolog.Logger
	service string
	version string
}

// Option allows functional configuration of Server
type Option func(*Server)

// WithLogger sets a custom logger
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithPlugin sets the plugin applied to every seeded item
func WithPlugin(plugin dynamotools.DataCreatePlugin) Option {
	return func(s *Server) {
		s.plugin = plugin
	}
}

// WithVersion sets the version reported by /health
func WithVersion(version string) Option {
	return func(s *Server) {
		s.version = version
	}
}

// New creates a server with all routes registered
func New(factory ToolsFactory, opts ...Option) *Server {
	s := &Server{
		factory: factory,
		logger:  log.Logger,
		service: "dynamotools",
		version: "dev",
	}
	for _, opt := range opts {
		opt(s)
	}

	s.app = fiber.New()
	s.registerRoutes()
	return s
}

// App returns the underlying fiber app
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until Shutdown is called
func (s *Server) Listen(addr string) error {
	s.logger.Info().Str("address", addr).Msg("Starting HTTP server")
	return s.app.Listen(addr)
}

// Shutdown stops the server, waiting up to timeout for open requests
func (s *Server) Shutdown(timeout time.Duration) error {
	return s.app.ShutdownWithTimeout(timeout)
}

// registerRoutes registers all HTTP routes
func (s *Server) registerRoutes() {
	// Health check endpoint
	s.app.Get("/health", s.handleHealth)

	// Root endpoint
	s.app.Get("/", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service": s.service,
			"version": s.version,
			"endpoints": fiber.Map{
				"health":      "GET /health",
				"createTable": "POST /api/v1/tables/:name?deleteFirst=true",
				"deleteTable": "DELETE /api/v1/tables/:name",
				"seed":        "POST /api/v1/tables/:name/items",
			},
		})
	})

	// API v1 routes
	v1 := s.app.Group("/api/v1")

	tables := v1.Group("/tables")
	tables.Post("/:name", s.handleCreateTable)
	tables.Delete("/:name", s.handleDeleteTable)
	tables.Post("/:name/items", s.handleSeed)
}
