package metrics

import (
	"fmt"

	"recolorlab/types"

	"gonum.org/v1/gonum/stat"
)

// Summary holds mean and standard deviation for one metric across a run
type Summary struct {
	Name   string
	Mean   float64
	StdDev float64
	N      int
}

// Aggregate computes run-level statistics over a set of metric records
func Aggregate(records []types.MetricRecord) []Summary {
	if len(records) == 0 {
		return nil
	}

	columns := []struct {
		name   string
		values func(types.MetricRecord) float64
	}{
		{"ssim", func(r types.MetricRecord) float64 { return r.SSIM }},
		{"psnr_outside", func(r types.MetricRecord) float64 { return r.PSNROutside }},
		{"delta_e76_raw", func(r types.MetricRecord) float64 { return r.DeltaE76Raw }},
		{"delta_e76_gc", func(r types.MetricRecord) float64 { return r.DeltaE76GC }},
		{"delta_e94_raw", func(r types.MetricRecord) float64 { return r.DeltaE94Raw }},
		{"delta_e94_gc", func(r types.MetricRecord) float64 { return r.DeltaE94GC }},
		{"leakage_raw", func(r types.MetricRecord) float64 { return r.LeakageRaw }},
		{"leakage_gc", func(r types.MetricRecord) float64 { return r.LeakageGC }},
		{"edge_align_delta", func(r types.MetricRecord) float64 { return r.EdgeAlignDelta }},
	}

	summaries := make([]Summary, 0, len(columns))
	for _, col := range columns {
		values := make([]float64, len(records))
		for i, r := range records {
			values[i] = col.values(r)
		}

		summaries = append(summaries, Summary{
			Name:   col.name,
			Mean:   stat.Mean(values, nil),
			StdDev: stat.StdDev(values, nil),
			N:      len(values),
		})
	}

	return summaries
}

// String renders a summary row for the report command
func (s Summary) String() string {
	return fmt.Sprintf("%-18s mean=%9.4f stddev=%9.4f n=%d", s.Name, s.Mean, s.StdDev, s.N)
}
