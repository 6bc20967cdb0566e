package pricing

import (
	"sort"

	"github.com/kubecostopt/costopt-backend/internal/types"
)

const gib = int64(1024 * 1024 * 1024)

// InstanceClass describes one purchasable node size.
type InstanceClass struct {
	Name        string
	CPUCores    float64
	MemoryBytes int64
	HourlyCost  float64
}

// Catalog holds per-provider instance classes ordered by ascending
// hourly cost. Static on-demand price sheets; a billing API integration
// would slot in behind the same lookup surface.
type Catalog struct {
	classes map[types.CloudProvider][]InstanceClass
}

func DefaultCatalog() *Catalog {
	c := &Catalog{classes: map[types.CloudProvider][]InstanceClass{
		types.AWS: {
			{Name: "t3.micro", CPUCores: 2, MemoryBytes: 1 * gib, HourlyCost: 0.0104},
			{Name: "t3.small", CPUCores: 2, MemoryBytes: 2 * gib, HourlyCost: 0.0208},
			{Name: "t3.medium", CPUCores: 2, MemoryBytes: 4 * gib, HourlyCost: 0.0416},
			{Name: "t3.large", CPUCores: 2, MemoryBytes: 8 * gib, HourlyCost: 0.0832},
			{Name: "m5.large", CPUCores: 2, MemoryBytes: 8 * gib, HourlyCost: 0.096},
			{Name: "t3.xlarge", CPUCores: 4, MemoryBytes: 16 * gib, HourlyCost: 0.1664},
			{Name: "m5.xlarge", CPUCores: 4, MemoryBytes: 16 * gib, HourlyCost: 0.192},
			{Name: "m5.2xlarge", CPUCores: 8, MemoryBytes: 32 * gib, HourlyCost: 0.384},
		},
		types.GCP: {
			{Name: "e2-small", CPUCores: 2, MemoryBytes: 2 * gib, HourlyCost: 0.0168},
			{Name: "e2-medium", CPUCores: 2, MemoryBytes: 4 * gib, HourlyCost: 0.0335},
			{Name: "e2-standard-2", CPUCores: 2, MemoryBytes: 8 * gib, HourlyCost: 0.067},
			{Name: "n2-standard-2", CPUCores: 2, MemoryBytes: 8 * gib, HourlyCost: 0.0971},
			{Name: "e2-standard-4", CPUCores: 4, MemoryBytes: 16 * gib, HourlyCost: 0.134},
			{Name: "n2-standard-4", CPUCores: 4, MemoryBytes: 16 * gib, HourlyCost: 0.1942},
		},
		types.Azure: {
			{Name: "B2s", CPUCores: 2, MemoryBytes: 4 * gib, HourlyCost: 0.0416},
			{Name: "B2ms", CPUCores: 2, MemoryBytes: 8 * gib, HourlyCost: 0.0832},
			{Name: "D2s_v3", CPUCores: 2, MemoryBytes: 8 * gib, HourlyCost: 0.096},
			{Name: "D4s_v3", CPUCores: 4, MemoryBytes: 16 * gib, HourlyCost: 0.192},
		},
		types.Other: {
			{Name: "generic-small", CPUCores: 2, MemoryBytes: 4 * gib, HourlyCost: 0.04},
			{Name: "generic-medium", CPUCores: 4, MemoryBytes: 16 * gib, HourlyCost: 0.16},
			{Name: "generic-large", CPUCores: 8, MemoryBytes: 32 * gib, HourlyCost: 0.32},
		},
	}}
	for provider := range c.classes {
		sort.SliceStable(c.classes[provider], func(i, j int) bool {
			return c.classes[provider][i].HourlyCost < c.classes[provider][j].HourlyCost
		})
	}
	return c
}

func (c *Catalog) Lookup(provider types.CloudProvider, name string) (InstanceClass, bool) {
	for _, class := range c.classes[provider] {
		if class.Name == name {
			return class, true
		}
	}
	return InstanceClass{}, false
}

const minTargetOccupancy = 0.60

// fallbackRates price arbitrary shapes when an instance class is not in
// the catalog. Derived from the mid-size general purpose classes above.
var fallbackRates = map[types.CloudProvider]struct{ perCore, perGiB float64 }{
	types.AWS:   {perCore: 0.024, perGiB: 0.006},
	types.GCP:   {perCore: 0.0165, perGiB: 0.00425},
	types.Azure: {perCore: 0.024, perGiB: 0.006},
	types.Other: {perCore: 0.01, perGiB: 0.005},
}

// EstimateHourlyCost prices a node shape from per-core and per-GiB rates.
func (c *Catalog) EstimateHourlyCost(provider types.CloudProvider, cpuCores float64, memoryBytes int64) float64 {
	rates, ok := fallbackRates[provider]
	if !ok {
		rates = fallbackRates[types.Other]
	}
	return cpuCores*rates.perCore + float64(memoryBytes)/float64(gib)*rates.perGiB
}

// EstimateRightsized prices a hypothetical node sized so the given peak
// usage lands at the target occupancy. Downsizing fallback for nodes
// whose instance class the catalog does not know.
func (c *Catalog) EstimateRightsized(provider types.CloudProvider, peakCPUCores float64, peakMemoryBytes int64) float64 {
	cores := peakCPUCores / minTargetOccupancy
	memory := int64(float64(peakMemoryBytes) / minTargetOccupancy)
	return c.EstimateHourlyCost(provider, cores, memory)
}

// NextSmaller returns the downsizing target for a node: the largest class
// cheaper than the current one whose capacity the peak observed usage
// would occupy at >=60%. When no class reaches the occupancy target the
// smallest class that still fits the peak is returned.
func (c *Catalog) NextSmaller(provider types.CloudProvider, current string, peakCPUCores float64, peakMemoryBytes int64) (InstanceClass, bool) {
	currentClass, ok := c.Lookup(provider, current)
	if !ok {
		return InstanceClass{}, false
	}

	var fallback InstanceClass
	haveFallback := false
	classes := c.classes[provider]
	// Walk from the most expensive candidate downwards.
	for i := len(classes) - 1; i >= 0; i-- {
		class := classes[i]
		if class.HourlyCost >= currentClass.HourlyCost {
			continue
		}
		if peakCPUCores > class.CPUCores || peakMemoryBytes > class.MemoryBytes {
			continue
		}
		cpuOccupancy := peakCPUCores / class.CPUCores
		memOccupancy := float64(peakMemoryBytes) / float64(class.MemoryBytes)
		if cpuOccupancy >= minTargetOccupancy || memOccupancy >= minTargetOccupancy {
			return class, true
		}
		fallback = class
		haveFallback = true
	}
	return fallback, haveFallback
}
