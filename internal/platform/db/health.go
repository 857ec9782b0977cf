package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Health reports the state of the database connection pool.
type Health struct {
	Healthy      bool          `json:"healthy"`
	Latency      time.Duration `json:"latency_ns"`
	TotalConns   int32         `json:"total_conns"`
	IdleConns    int32         `json:"idle_conns"`
	MaxConns     int32         `json:"max_conns"`
	ErrorMessage string        `json:"error,omitempty"`
}

// CheckHealth pings the database and collects pool statistics. The ping is
// bounded by a short timeout so a wedged database cannot hang the probe.
func CheckHealth(ctx context.Context, pool *pgxpool.Pool) Health {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	err := pool.Ping(ctx)
	latency := time.Since(start)

	stat := pool.Stat()
	h := Health{
		Healthy:    err == nil,
		Latency:    latency,
		TotalConns: stat.TotalConns(),
		IdleConns:  stat.IdleConns(),
		MaxConns:   stat.MaxConns(),
	}
	if err != nil {
		h.ErrorMessage = err.Error()
	}
	return h
}
