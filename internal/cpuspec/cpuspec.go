// Package cpuspec derives worker pool sizing from CPU topology. Batch
// prediction is CPU-bound tree evaluation, on hybrid architectures the
// performance cores are the ones worth saturating.
package cpuspec

import (
	"regexp"
	"runtime"
	"strings"

	"github.com/klauspost/cpuid/v2"
)

// CPUSpec describes the processor the process runs on.
type CPUSpec struct {
	BrandName        string
	PerformanceCores int
}

// GetCPUSpec reads the CPU brand string and resolves the performance
// core count for known hybrid parts. PerformanceCores is 0 when the
// topology is not recognized.
func GetCPUSpec() CPUSpec {
	brand := cpuid.CPU.BrandName
	return CPUSpec{
		BrandName:        brand,
		PerformanceCores: performanceCores(brand),
	}
}

// OptimalWorkerCount returns the recommended worker count for batch
// prediction. The performance core count wins when the topology is
// known, always capped by the CPUs actually available to the process,
// which matters in VMs and under container cpuset limits.
func (c CPUSpec) OptimalWorkerCount() int {
	available := runtime.NumCPU()
	if c.PerformanceCores > 0 {
		return min(c.PerformanceCores, available)
	}
	if n := cpuid.CPU.LogicalCores; n > 0 {
		return min(n, available)
	}
	return available
}

// Performance core counts by model number for hybrid Intel desktop
// parts, 12th through 14th gen Core.
var intelPCores = map[string]int{
	"12900": 8, "12700": 8, "12600": 6, "12400": 6, "12100": 4,
	"13900": 8, "13700": 8, "13600": 6, "13500": 6, "13400": 6, "13100": 4,
	"14900": 8, "14700": 8, "14600": 6, "14400": 6, "14100": 4,
}

// Core Ultra 200 series model numbers to performance core counts.
var intelUltraPCores = map[string]int{
	"285": 8, "265": 8, "255": 8, "235": 6, "225": 4,
}

// Apple Silicon performance core counts by chip name.
var applePCores = map[string]int{
	"m1": 4, "m1 pro": 8, "m1 max": 8, "m1 ultra": 16,
	"m2": 4, "m2 pro": 8, "m2 max": 12, "m2 ultra": 24,
	"m3": 4, "m3 pro": 8, "m3 max": 12, "m3 ultra": 24,
	"m4": 6, "m4 pro": 8, "m4 max": 12,
}

var (
	intelCoreRe  = regexp.MustCompile(`intel.*core.*i[3579]-(\d{5})`)
	intelUltraRe = regexp.MustCompile(`intel.*core.*ultra\s+[579]\s+(?:processor\s+)?(\d{3})`)
	appleRe      = regexp.MustCompile(`apple\s+(m[1234](?:\s+(?:pro|max|ultra))?)`)
)

func performanceCores(brandName string) int {
	brand := strings.ToLower(brandName)
	if m := intelCoreRe.FindStringSubmatch(brand); len(m) > 1 {
		return intelPCores[m[1]]
	}
	if m := intelUltraRe.FindStringSubmatch(brand); len(m) > 1 {
		return intelUltraPCores[m[1]]
	}
	if m := appleRe.FindStringSubmatch(brand); len(m) > 1 {
		return applePCores[strings.Join(strings.Fields(m[1]), " ")]
	}
	return 0
}
