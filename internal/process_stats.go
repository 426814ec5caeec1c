package internal

import (
	"log/slog"
	"os"

	"github.com/shirou/gopsutil/process"
)

// ProcessStats describes the running server process.
type ProcessStats struct {
	PID        int32   `json:"pid"`
	Status     string  `json:"status"`
	CPUPercent float64 `json:"cpu_percent"`
	RSSBytes   uint64  `json:"rss_bytes"`
}

// ProcessSampler reads CPU and memory usage of the current process.
type ProcessSampler struct {
	log  *slog.Logger
	self *process.Process
}

func NewProcessSampler(log *slog.Logger) (*ProcessSampler, error) {
	self, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}
	return &ProcessSampler{log: log, self: self}, nil
}

// Sample returns what could be read; failed readings stay zero.
func (s *ProcessSampler) Sample() ProcessStats {
	stats := ProcessStats{PID: s.self.Pid}
	if mem, err := s.self.MemoryInfo(); err != nil {
		s.log.Debug("Failed to read process memory", "error", err)
	} else {
		stats.RSSBytes = mem.RSS
	}
	if cpu, err := s.self.CPUPercent(); err != nil {
		s.log.Debug("Failed to read process cpu", "error", err)
	} else {
		stats.CPUPercent = cpu
	}
	if status, err := s.self.Status(); err != nil {
		s.log.Debug("Failed to read process status", "error", err)
	} else {
		stats.Status = status
	}
	return stats
}
