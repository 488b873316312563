package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

type PoolStats struct {
	TotalConns      int32  `json:"total_conns"`
	IdleConns       int32  `json:"idle_conns"`
	AcquiredConns   int32  `json:"acquired_conns"`
	MaxConns        int32  `json:"max_conns"`
	AcquireCount    int64  `json:"acquire_count"`
	AcquireDuration string `json:"acquire_duration"`
}

func GetPoolStats(pool *pgxpool.Pool) *PoolStats {
	stat := pool.Stat()
	return &PoolStats{
		TotalConns:      stat.TotalConns(),
		IdleConns:       stat.IdleConns(),
		AcquiredConns:   stat.AcquiredConns(),
		MaxConns:        stat.MaxConns(),
		AcquireCount:    stat.AcquireCount(),
		AcquireDuration: stat.AcquireDuration().String(),
	}
}

// Check pings the record store backend.
type Check func(ctx context.Context) error

// Health describes the record store for /health/db.
type Health struct {
	Status string     `json:"status"`
	Driver string     `json:"driver"`
	Error  string     `json:"error,omitempty"`
	Pool   *PoolStats `json:"pool,omitempty"`
}

// HealthHandler reports the record store as healthy (200) or unhealthy (503).
// A nil check means the backend is in process and always healthy. pool may be
// nil; when set its statistics are included.
func HealthHandler(driver string, check Check, pool *pgxpool.Pool) echo.HandlerFunc {
	return func(c echo.Context) error {
		h := Health{Status: "healthy", Driver: driver}
		if pool != nil {
			h.Pool = GetPoolStats(pool)
		}
		if check == nil {
			return c.JSON(http.StatusOK, h)
		}
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()
		if err := check(ctx); err != nil {
			h.Status, h.Error = "unhealthy", err.Error()
			return c.JSON(http.StatusServiceUnavailable, h)
		}
		return c.JSON(http.StatusOK, h)
	}
}
