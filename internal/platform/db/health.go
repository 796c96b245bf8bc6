package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// PoolStats is the pool snapshot reported by /health/db. Canceled acquires
// count queries that hit DB_QUERY_TIMEOUT while waiting for a connection.
type PoolStats struct {
	TotalConns       int32  `json:"total_conns"`
	IdleConns        int32  `json:"idle_conns"`
	AcquiredConns    int32  `json:"acquired_conns"`
	MaxConns         int32  `json:"max_conns"`
	AcquireCount     int64  `json:"acquire_count"`
	EmptyAcquires    int64  `json:"empty_acquires"`
	CanceledAcquires int64  `json:"canceled_acquires"`
	AcquireDuration  string `json:"acquire_duration"`
}

func statsOf(pool *pgxpool.Pool) PoolStats {
	stat := pool.Stat()
	return PoolStats{
		TotalConns:       stat.TotalConns(),
		IdleConns:        stat.IdleConns(),
		AcquiredConns:    stat.AcquiredConns(),
		MaxConns:         stat.MaxConns(),
		AcquireCount:     stat.AcquireCount(),
		EmptyAcquires:    stat.EmptyAcquireCount(),
		CanceledAcquires: stat.CanceledAcquireCount(),
		AcquireDuration:  stat.AcquireDuration().String(),
	}
}

// SchemaHealth counts the embedded migrations against the applied ones.
type SchemaHealth struct {
	Applied int    `json:"applied"`
	Pending int    `json:"pending"`
	Error   string `json:"error,omitempty"`
}

// HealthReport is the /health/db body.
type HealthReport struct {
	Status string       `json:"status"`
	Error  string       `json:"error,omitempty"`
	Pool   PoolStats    `json:"pool"`
	Schema SchemaHealth `json:"schema"`
}

// BuildHealthReport decides the status: unhealthy (503) when the ping
// failed, degraded (200) when migrations are pending or unreadable,
// healthy otherwise.
func BuildHealthReport(pingErr error, pool PoolStats, statuses []MigrationStatus, statusErr error) (int, HealthReport) {
	report := HealthReport{Status: "healthy", Pool: pool}
	if pingErr != nil {
		report.Status = "unhealthy"
		report.Error = pingErr.Error()
		return http.StatusServiceUnavailable, report
	}

	if statusErr != nil {
		report.Status = "degraded"
		report.Schema.Error = statusErr.Error()
		return http.StatusOK, report
	}
	for _, s := range statuses {
		if s.Applied {
			report.Schema.Applied++
		} else {
			report.Schema.Pending++
		}
	}
	if report.Schema.Pending > 0 {
		report.Status = "degraded"
	}
	return http.StatusOK, report
}

// HealthHandler pings the database and checks the migration state, each
// bounded by timeout.
func HealthHandler(pool *pgxpool.Pool, migrator *Migrator, timeout time.Duration) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
		defer cancel()

		pingErr := pool.Ping(ctx)
		var statuses []MigrationStatus
		var statusErr error
		if pingErr == nil {
			statuses, statusErr = migrator.Status(ctx, DefaultSchema)
		}

		code, report := BuildHealthReport(pingErr, statsOf(pool), statuses, statusErr)
		return c.JSON(code, report)
	}
}
