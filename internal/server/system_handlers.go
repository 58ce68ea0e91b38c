// Package server provides the HTTP server and routing for Quotient.
package server

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/bidfoundry/quotient/internal/reliability"
	"github.com/bidfoundry/quotient/internal/version"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/bidfoundry/quotient/internal/database"
)

// SystemHandlers exposes host and database monitoring endpoints.
type SystemHandlers struct {
	log       zerolog.Logger
	dataDir   string
	databases map[string]*database.DB
	health    *reliability.DatabaseHealthService
	startedAt time.Time
}

// NewSystemHandlers creates the system monitoring handler set.
func NewSystemHandlers(
	log zerolog.Logger,
	dataDir string,
	databases map[string]*database.DB,
	health *reliability.DatabaseHealthService,
) *SystemHandlers {
	return &SystemHandlers{
		log:       log.With().Str("handler", "system").Logger(),
		dataDir:   dataDir,
		databases: databases,
		health:    health,
		startedAt: time.Now(),
	}
}

// SystemInfoResponse is the payload for GET /api/system/info
type SystemInfoResponse struct {
	Service       string  `json:"service"`
	Version       string  `json:"version"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Hostname      string  `json:"hostname"`
	Platform      string  `json:"platform"`
	KernelVersion string  `json:"kernel_version"`
	GoVersion     string  `json:"go_version"`
	NumGoroutine  int     `json:"num_goroutine"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemUsedPct    float64 `json:"mem_used_pct"`
	MemTotalMB    float64 `json:"mem_total_mb"`
	DiskUsedPct   float64 `json:"disk_used_pct"`
	DiskFreeMB    float64 `json:"disk_free_mb"`
}

// HandleSystemInfo returns host and runtime statistics
func (h *SystemHandlers) HandleSystemInfo(w http.ResponseWriter, r *http.Request) {
	response := SystemInfoResponse{
		Service:       "quotient",
		Version:       version.Version,
		UptimeSeconds: time.Since(h.startedAt).Seconds(),
		GoVersion:     runtime.Version(),
		NumGoroutine:  runtime.NumGoroutine(),
	}

	if info, err := host.Info(); err != nil {
		h.log.Warn().Err(err).Msg("Failed to read host info")
	} else {
		response.Hostname = info.Hostname
		response.Platform = info.Platform
		response.KernelVersion = info.KernelVersion
	}

	cpuPct, memPct, memTotalMB := h.getSystemStats()
	response.CPUPercent = cpuPct
	response.MemUsedPct = memPct
	response.MemTotalMB = memTotalMB

	if usage, err := disk.Usage(h.dataDir); err != nil {
		h.log.Warn().Err(err).Str("dir", h.dataDir).Msg("Failed to read disk usage")
	} else {
		response.DiskUsedPct = usage.UsedPercent
		response.DiskFreeMB = float64(usage.Free) / 1024 / 1024
	}

	h.writeJSON(w, response)
}

// DBInfo describes one database file on disk
type DBInfo struct {
	Name      string  `json:"name"`
	Path      string  `json:"path"`
	SizeMB    float64 `json:"size_mb"`
	WALSizeMB float64 `json:"wal_size_mb"`
	Healthy   bool    `json:"healthy"`
}

// DatabaseStatsResponse is the payload for GET /api/system/database/stats
type DatabaseStatsResponse struct {
	Databases   []DBInfo `json:"databases"`
	TotalSizeMB float64  `json:"total_size_mb"`
	LastChecked string   `json:"last_checked"`
}

// HandleDatabaseStats returns per-database file statistics
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting database stats")

	reports := h.health.CheckAll(r.Context())
	healthy := make(map[string]bool, len(reports))
	for _, report := range reports {
		healthy[report.Name] = report.Healthy
	}

	databases := []DBInfo{}
	totalSizeMB := 0.0

	for _, report := range reports {
		path := filepath.Join(h.dataDir, report.Name+".db")
		info := DBInfo{
			Name:    report.Name,
			Path:    path,
			Healthy: healthy[report.Name],
		}

		if stat, err := os.Stat(path); err == nil {
			info.SizeMB = float64(stat.Size()) / 1024 / 1024
			totalSizeMB += info.SizeMB
		}
		if stat, err := os.Stat(path + "-wal"); err == nil {
			info.WALSizeMB = float64(stat.Size()) / 1024 / 1024
		}

		databases = append(databases, info)
	}

	h.writeJSON(w, DatabaseStatsResponse{
		Databases:   databases,
		TotalSizeMB: totalSizeMB,
		LastChecked: time.Now().Format(time.RFC3339),
	})
}

// DiskUsageResponse is the payload for GET /api/system/disk
type DiskUsageResponse struct {
	DataDirMB float64 `json:"data_dir_mb"`
	BackupsMB float64 `json:"backups_mb"`
	TotalMB   float64 `json:"total_mb"`
}

// HandleDiskUsage returns disk usage statistics for the data directory
func (h *SystemHandlers) HandleDiskUsage(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting disk usage")

	dataDirSize := h.getDirSize(h.dataDir)
	backupsSize := h.getDirSize(filepath.Join(h.dataDir, "backups"))

	h.writeJSON(w, DiskUsageResponse{
		DataDirMB: dataDirSize,
		BackupsMB: backupsSize,
		TotalMB:   dataDirSize,
	})
}

// getDirSize calculates total size of a directory in MB
func (h *SystemHandlers) getDirSize(dirPath string) float64 {
	var totalSize int64

	err := filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip errors
		}
		if !info.IsDir() {
			totalSize += info.Size()
		}
		return nil
	})

	if err != nil {
		h.log.Warn().Err(err).Str("dir", dirPath).Msg("Failed to calculate directory size")
		return 0
	}

	return float64(totalSize) / 1024 / 1024
}

// getSystemStats samples CPU and RAM usage. The CPU sample window is
// 100ms so dashboard polls stay fast.
func (h *SystemHandlers) getSystemStats() (cpuPct, memPct, memTotalMB float64) {
	cpuSamples, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
	} else if len(cpuSamples) > 0 {
		cpuPct = cpuSamples[0]
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return cpuPct, 0, 0
	}

	return cpuPct, memStat.UsedPercent, float64(memStat.Total) / 1024 / 1024
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
