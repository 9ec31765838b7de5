package service

import (
	"runtime"
	"time"

	"github.com/maintainview/maintainview/config"
	"github.com/maintainview/maintainview/database"
	"github.com/maintainview/maintainview/logger"
	"github.com/maintainview/maintainview/web/entity"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
)

type ServerService struct{}

// GetStatus collects the live system snapshot for the admin status endpoint.
// Individual probe failures are logged and leave their fields zeroed.
func (s *ServerService) GetStatus() *entity.SystemStatus {
	status := &entity.SystemStatus{
		Goroutines: runtime.NumGoroutine(),
		Version:    config.GetVersion(),
		ReadOnly:   database.IsReadOnly(),
	}

	percents, err := cpu.Percent(time.Second, false)
	if err != nil {
		logger.Warning("get cpu percent failed:", err)
	} else if len(percents) > 0 {
		status.CpuPercent = percents[0]
	}

	memInfo, err := mem.VirtualMemory()
	if err != nil {
		logger.Warning("get virtual memory failed:", err)
	} else {
		status.MemTotal = memInfo.Total
		status.MemUsed = memInfo.Used
	}

	uptime, err := host.Uptime()
	if err != nil {
		logger.Warning("get uptime failed:", err)
	} else {
		status.Uptime = uptime
	}

	return status
}
