package handlers

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

var processStarted = time.Now()

// SystemInfo is a snapshot of the bot process and its host.
type SystemInfo struct {
	Host       string
	OS         string
	GoVersion  string
	Uptime     time.Duration
	Goroutines int
	HeapMB     float64
	// RSSMB, CPUSeconds and OpenFDs are -1 where the process collector has no data.
	RSSMB      float64
	CPUSeconds float64
	OpenFDs    float64
}

// CollectSystemInfo reads process figures from the metrics gatherer and fills
// the rest from the runtime.
func CollectSystemInfo(g prometheus.Gatherer, now time.Time) SystemInfo {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	host, _ := os.Hostname()
	info := SystemInfo{
		Host:       host,
		OS:         runtime.GOOS + "/" + runtime.GOARCH,
		GoVersion:  runtime.Version(),
		Uptime:     now.Sub(processStarted).Truncate(time.Second),
		Goroutines: runtime.NumGoroutine(),
		HeapMB:     float64(mem.HeapAlloc) / (1 << 20),
		RSSMB:      -1,
		CPUSeconds: -1,
		OpenFDs:    -1,
	}
	if g == nil {
		return info
	}

	families, err := g.Gather()
	if err != nil {
		log.WithError(err).WithField("object", "SystemInfo").Debug("partial gather")
	}
	for _, mf := range families {
		if len(mf.GetMetric()) == 0 {
			continue
		}
		m := mf.GetMetric()[0]
		switch mf.GetName() {
		case "process_resident_memory_bytes":
			info.RSSMB = m.GetGauge().GetValue() / (1 << 20)
		case "process_cpu_seconds_total":
			info.CPUSeconds = m.GetCounter().GetValue()
		case "process_open_fds":
			info.OpenFDs = m.GetGauge().GetValue()
		case "process_start_time_seconds":
			if start := m.GetGauge().GetValue(); start > 0 {
				started := time.Unix(int64(start), 0)
				info.Uptime = now.Sub(started).Truncate(time.Second)
			}
		}
	}
	return info
}

func orNA(v float64, format string) string {
	if v < 0 {
		return "N/A"
	}
	return fmt.Sprintf(format, v)
}

// Render formats the snapshot as HTML lines with the given localized title.
func (s SystemInfo) Render(title string) string {
	lines := []string{
		"🖥 <b>" + title + "</b>",
		strings.Repeat("─", 20),
		fmt.Sprintf("⚙️ <b>OS:</b> %s (%s)", s.OS, s.GoVersion),
		fmt.Sprintf("🏷 <b>Host:</b> %s", s.Host),
		fmt.Sprintf("⌛ <b>Uptime:</b> %s", s.Uptime),
		"",
		fmt.Sprintf("💿 <b>CPU:</b> %s", orNA(s.CPUSeconds, "%.1fs")),
		fmt.Sprintf("🧠 <b>RAM:</b> %s RSS, %.1fMB heap", orNA(s.RSSMB, "%.1fMB"), s.HeapMB),
		fmt.Sprintf("🧵 <b>Goroutines:</b> %d", s.Goroutines),
		fmt.Sprintf("📂 <b>Open files:</b> %s", orNA(s.OpenFDs, "%.0f")),
	}
	return strings.Join(lines, "\n")
}
