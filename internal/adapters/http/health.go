package http

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
)

const readyTimeout = 3 * time.Second

// HealthHandler reports liveness together with the session's current size.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()

	return func(c *fiber.Ctx) error {
		state := deps.Map.State()
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"uptime":  time.Since(startedAt).String(),
			"version": "dev",
			"session": fiber.Map{
				"markers":     len(state.Markers),
				"has_polygon": state.Polygon != nil,
				"drawing":     deps.Map.Drawing(),
			},
		})
	}
}

// dependency is one readiness check. Optional dependencies that are not
// configured report "not configured" without failing readiness.
type dependency struct {
	name     string
	optional bool
	check    func(ctx context.Context) error
}

var errNotConfigured = errors.New("not configured")

func readinessChecks(deps *Dependencies) []dependency {
	return []dependency{
		{name: "store", check: func(ctx context.Context) error {
			if deps.Store == nil {
				return errNotConfigured
			}
			return deps.Store.Ping(ctx)
		}},
		// Events stay in process when NATS is off.
		{name: "nats", optional: true, check: func(ctx context.Context) error {
			if deps.NATS == nil {
				return errNotConfigured
			}
			if !deps.NATS.IsConnected() {
				return errors.New("disconnected")
			}
			return nil
		}},
	}
}

// ReadyHandler checks the state store and, when enabled, NATS.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	dependencies := readinessChecks(deps)

	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), readyTimeout)
		defer cancel()

		checks := make(map[string]string, len(dependencies))
		ready := true
		for _, p := range dependencies {
			err := p.check(ctx)
			switch {
			case err == nil:
				checks[p.name] = "ok"
			case errors.Is(err, errNotConfigured) && p.optional:
				checks[p.name] = err.Error()
			default:
				checks[p.name] = "error: " + err.Error()
				ready = false
			}
		}

		if !ready {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "not ready", "checks": checks})
		}
		return c.JSON(fiber.Map{"status": "ready", "checks": checks})
	}
}
