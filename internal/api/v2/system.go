package api

import (
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/farmwatch/farmwatch/internal/logger"
)

// staleDataAfter is how long without a reading before collection is flagged.
const staleDataAfter = time.Hour

// Component states reported by the system status endpoint.
const (
	statusOK      = "ok"
	statusWarning = "warning"
	statusError   = "error"
)

// DataCollectionStatus reports whether readings are arriving.
type DataCollectionStatus struct {
	Status         string     `json:"status"`
	RecentReadings int64      `json:"recent_readings"`
	LastReading    *time.Time `json:"last_reading,omitempty"`
}

// DatabaseStatus reports database reachability.
type DatabaseStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// HostStatus is a snapshot of host resources.
type HostStatus struct {
	Hostname      string  `json:"hostname"`
	OS            string  `json:"os"`
	Platform      string  `json:"platform,omitempty"`
	UptimeSeconds uint64  `json:"uptime_seconds"`
	NumCPU        int     `json:"num_cpu"`
	CPUUsage      float64 `json:"cpu_usage_percent"`
	MemoryTotal   uint64  `json:"memory_total"`
	MemoryUsed    uint64  `json:"memory_used"`
	MemoryUsage   float64 `json:"memory_usage_percent"`
	GoVersion     string  `json:"go_version"`
}

// SystemStatus is the body of GET /system/status.
type SystemStatus struct {
	Status         string               `json:"status"`
	Timestamp      time.Time            `json:"timestamp"`
	AppUptime      int64                `json:"app_uptime_seconds"`
	DataCollection DataCollectionStatus `json:"data_collection"`
	Database       DatabaseStatus       `json:"database"`
	Host           HostStatus           `json:"host"`
}

func (c *Controller) initSystemRoutes() {
	c.Group.GET("/system/status", c.GetSystemStatus)
}

// GetSystemStatus handles GET /api/v2/system/status
func (c *Controller) GetSystemStatus(ctx echo.Context) error {
	now := c.now()
	status := SystemStatus{
		Status:    statusOK,
		Timestamp: now,
		AppUptime: int64(time.Since(c.startTime).Seconds()),
		Database:  DatabaseStatus{Status: statusOK},
		Host:      hostStatus(),
	}

	if err := c.DS.Ping(); err != nil {
		status.Database = DatabaseStatus{Status: statusError, Error: err.Error()}
		status.DataCollection.Status = statusError
		status.Status = statusError
		return ctx.JSON(http.StatusOK, status)
	}

	count, err := c.DS.CountEnvironmentData(now.Add(-staleDataAfter))
	if err != nil {
		return c.HandleError(ctx, err, "Failed to count recent readings", 0)
	}
	status.DataCollection.RecentReadings = count
	status.DataCollection.Status = statusOK
	if count == 0 {
		status.DataCollection.Status = statusWarning
		status.Status = statusWarning
	}
	if latest, err := c.DS.LatestEnvironmentData(); err == nil {
		status.DataCollection.LastReading = &latest.Timestamp
	}

	return ctx.JSON(http.StatusOK, status)
}

// hostStatus collects host metrics. Failures leave fields zero.
func hostStatus() HostStatus {
	hs := HostStatus{
		OS:        runtime.GOOS,
		NumCPU:    runtime.NumCPU(),
		GoVersion: runtime.Version(),
	}
	hs.Hostname, _ = os.Hostname()

	if info, err := host.Info(); err == nil {
		hs.Platform = info.Platform
		hs.UptimeSeconds = info.Uptime
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		hs.MemoryTotal = vm.Total
		hs.MemoryUsed = vm.Used
		hs.MemoryUsage = vm.UsedPercent
	} else {
		GetLogger().Debug("memory stats unavailable", logger.Error(err))
	}
	// zero interval compares with the previous call instead of sleeping
	if pct, err := cpu.Percent(0, false); err == nil && len(pct) > 0 {
		hs.CPUUsage = pct[0]
	}
	return hs
}
