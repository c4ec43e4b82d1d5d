package http

import (
	"github.com/nats-io/nats.go"

	"github.com/navoditbharat/mapsketch/internal/core/ports"
	"github.com/navoditbharat/mapsketch/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Map    *usecases.MapService
	Store  ports.StateStore
	Events ports.EventSubscriber
	// NATS is nil when events stay in process.
	NATS *nats.Conn
}
