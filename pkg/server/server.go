package server

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/OpenSQZ/gtplanner/pkg/storage"
	"github.com/OpenSQZ/gtplanner/pkg/streaming"
)

type Server struct {
	mcp.Server
	storage storage.Storage
	streams *streaming.Manager
}

func NewServer(impl *mcp.Implementation, store storage.Storage, streams *streaming.Manager) *Server {
	return &Server{
		Server:  *mcp.NewServer(impl, nil),
		storage: store,
		streams: streams,
	}
}

func (s *Server) Storage() storage.Storage {
	return s.storage
}

func (s *Server) Streams() *streaming.Manager {
	return s.streams
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.streams != nil {
		s.streams.CloseAll()
	}
	if s.storage != nil {
		return s.storage.Close()
	}
	return nil
}
