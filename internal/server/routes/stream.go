package routes

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fr0stylo/issuedash/internal/broadcast"
)

const defaultHeartbeat = 25 * time.Second

// StreamRoutes serves the live notification stream.
type StreamRoutes struct {
	hub       *broadcast.Hub
	heartbeat time.Duration
}

// NewStreamRoutes constructs stream routes over the process hub.
func NewStreamRoutes(hub *broadcast.Hub, heartbeat time.Duration) *StreamRoutes {
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}
	return &StreamRoutes{hub: hub, heartbeat: heartbeat}
}

// RegisterRoutes registers the stream endpoint behind RequireAuth.
func (s *StreamRoutes) RegisterRoutes(e *echo.Echo) {
	e.GET("/events", s.handleStream, RequireAuth)
}

func (s *StreamRoutes) handleStream(c echo.Context) error {
	res := c.Response()
	flusher, ok := res.Writer.(http.Flusher)
	if !ok {
		return fmt.Errorf("streaming unsupported")
	}
	res.Header().Set("Content-Type", "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)

	sub := s.hub.Connect()
	defer s.hub.Disconnect(sub)

	if _, err := fmt.Fprint(res, ": connected\n\n"); err != nil {
		return nil
	}
	flusher.Flush()

	ticker := time.NewTicker(s.heartbeat)
	defer ticker.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := fmt.Fprint(res, ": ping\n\n"); err != nil {
				return nil
			}
			flusher.Flush()
		case msg, open := <-sub.C:
			if !open {
				return nil
			}
			if _, err := fmt.Fprintf(res, "event: %s\ndata: %s\n\n", msg.Name, msg.Data); err != nil {
				return nil
			}
			flusher.Flush()
		}
	}
}
