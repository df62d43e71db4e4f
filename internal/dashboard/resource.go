// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package dashboard

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
)

const notAvailable = "n/a"

// resourceSample is one snapshot of host and process usage. Fields the
// host cannot report are left at their zero value with the matching ok
// flag false.
type resourceSample struct {
	cpuPercent   float64
	cpuCount     int
	cpuOK        bool
	memPercent   float64
	memTotal     uint64
	memOK        bool
	diskPercent  float64
	diskFree     uint64
	diskOK       bool
	load1        float64
	load5        float64
	load15       float64
	loadOK       bool
	goroutines   int
	heapAlloc    uint64
	processStart time.Time
}

type sampler func(ctx context.Context) resourceSample

type resourceMonitor struct {
	sample sampler
	now    func() time.Time
}

func (resourceMonitor) Key() string            { return KeyResourceMonitor }
func (resourceMonitor) Title() string          { return "System Resource Monitor" }
func (resourceMonitor) Capability() Capability { return CapAdminOnly }

func (t resourceMonitor) Render(ctx context.Context, _ Filters) (View, error) {
	s := t.sample(ctx)

	cpuVal, memVal, diskVal, loadVal := notAvailable, notAvailable, notAvailable, notAvailable
	if s.cpuOK {
		cpuVal = fmt.Sprintf("%.0f%% (%d cores)", s.cpuPercent, s.cpuCount)
	}
	if s.memOK {
		memVal = fmt.Sprintf("%.0f%% of %s", s.memPercent, HumanBytes(s.memTotal))
	}
	if s.diskOK {
		diskVal = fmt.Sprintf("%.0f%% used, %s free", s.diskPercent, HumanBytes(s.diskFree))
	}
	if s.loadOK {
		loadVal = fmt.Sprintf("%.2f, %.2f, %.2f", s.load1, s.load5, s.load15)
	}

	uptime := notAvailable
	if !s.processStart.IsZero() {
		uptime = t.now().Sub(s.processStart).Truncate(time.Second).String()
	}

	return View{
		Tables: []Table{{
			Columns: []string{"Metric", "Value"},
			Rows: [][]string{
				{"CPU Usage", cpuVal},
				{"RAM Usage", memVal},
				{"Disk Used", diskVal},
				{"Load 1m/5m/15m", loadVal},
				{"Goroutines", strconv.Itoa(s.goroutines)},
				{"Heap", HumanBytes(s.heapAlloc)},
				{"Uptime", uptime},
			},
		}},
		Notes: []string{"Metrics sampled locally."},
	}, nil
}

// HumanBytes formats a byte count with binary units.
func HumanBytes(n uint64) string {
	units := []string{"B", "KB", "MB", "GB", "TB"}
	v := float64(n)
	i := 0
	for v >= 1024 && i < len(units)-1 {
		v /= 1024
		i++
	}
	return fmt.Sprintf("%.2f %s", v, units[i])
}

var processStart = time.Now()

func hostSample(ctx context.Context) resourceSample {
	s := resourceSample{processStart: processStart}

	if pct, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(pct) > 0 {
		if n, err := cpu.CountsWithContext(ctx, true); err == nil {
			s.cpuPercent, s.cpuCount, s.cpuOK = pct[0], n, true
		}
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		s.memPercent, s.memTotal, s.memOK = vm.UsedPercent, vm.Total, true
	}
	if du, err := disk.UsageWithContext(ctx, "/"); err == nil {
		s.diskPercent, s.diskFree, s.diskOK = du.UsedPercent, du.Free, true
	}
	if avg, err := load.AvgWithContext(ctx); err == nil {
		s.load1, s.load5, s.load15, s.loadOK = avg.Load1, avg.Load5, avg.Load15, true
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	s.goroutines = runtime.NumGoroutine()
	s.heapAlloc = ms.HeapAlloc
	return s
}
