// Package health exposes the liveness endpoint with host and session stats.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"chopchop-server-go/internal/domain/session"
	"chopchop-server-go/internal/platform/logging"
	httptransport "chopchop-server-go/internal/transport/http"
)

// Service reports process health.
type Service struct {
	sessions *session.Manager
	logger   *logging.Logger
	started  time.Time
}

func NewService(sessions *session.Manager, logger *logging.Logger) *Service {
	return &Service{
		sessions: sessions,
		logger:   logger,
		started:  time.Now(),
	}
}

// Register mounts the health route on the open route group.
func (s *Service) Register(ctx context.Context, router *gin.RouterGroup) error {
	router.GET("/health", s.handleHealth)
	return nil
}

func (s *Service) handleHealth(c *gin.Context) {
	report := gin.H{
		"status":         "ok",
		"service":        "chopchop-server",
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		report["memory"] = gin.H{
			"total_mb":     vm.Total / 1024 / 1024,
			"used_mb":      vm.Used / 1024 / 1024,
			"used_percent": vm.UsedPercent,
		}
	}
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		report["cpu_percent"] = percents[0]
	}

	if s.sessions != nil {
		if stats, err := s.sessions.Stats(c.Request.Context()); err == nil {
			report["sessions"] = stats
		} else {
			s.logger.WarnTag("HTTP", "session stats unavailable: %v", err)
		}
	}

	httptransport.RespondSuccess(c, http.StatusOK, report, "")
}
