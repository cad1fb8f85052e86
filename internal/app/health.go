package app

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/quill/internal/pkg/goerror"
	"github.com/shandysiswandi/quill/internal/pkg/router"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type redisPinger struct {
	client redis.Cmdable
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

type healthEndpoint struct {
	checks map[string]pinger
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Check pings every backing service. Any failure is reported as a server
// error naming the dependencies that are down.
func (h *healthEndpoint) Check(r *router.Request) (any, error) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	var down []string
	resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(names))}
	for _, name := range names {
		if err := h.checks[name].Ping(ctx); err != nil {
			slog.ErrorContext(ctx, "health check failed", "dependency", name, "error", err)
			down = append(down, name)
			continue
		}
		resp.Checks[name] = "up"
	}

	if len(down) > 0 {
		return nil, goerror.NewServer(fmt.Errorf("unhealthy: %s", strings.Join(down, ", ")))
	}

	return resp, nil
}
