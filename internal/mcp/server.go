// ABOUTME: MCP server setup for the fitlog tracker.
// ABOUTME: Wraps an MCP server around a loaded Tracker so agents can log and query data.
package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/fitlog/internal/models"
	"github.com/harperreed/fitlog/internal/tracker"
)

// Server wraps the MCP server with tracker access.
type Server struct {
	mcpServer *mcp.Server
	tracker   *tracker.Tracker
	now       func() time.Time
}

// NewServer creates a new MCP server over t. t must already be loaded.
func NewServer(t *tracker.Tracker) (*Server, error) {
	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "fitlog",
			Version: "1.0.0",
		},
		nil,
	)

	s := &Server{
		mcpServer: mcpServer,
		tracker:   t,
		now:       time.Now,
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Serve starts the MCP server using stdio transport.
func (s *Server) Serve(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) today() models.Day {
	return models.DayOf(s.now())
}

// parseDay reads an optional YYYY-MM-DD date, defaulting to today.
func (s *Server) parseDay(v string) (models.Day, error) {
	if v == "" {
		return s.today(), nil
	}
	return models.ParseDay(v)
}
