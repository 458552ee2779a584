package server

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// StartJanitor 按 schedule 定期清理过期图片，返回的 cron 需要调用方 Stop
func StartJanitor(reg *Registry, schedule string, ttl time.Duration) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		if n := reg.Sweep(ttl); n > 0 {
			slog.Debug("swept idle images", "count", n, "remaining", reg.Len())
		}
	})
	if err != nil {
		return nil, fmt.Errorf("add sweep job %q: %w", schedule, err)
	}
	c.Start()
	return c, nil
}
