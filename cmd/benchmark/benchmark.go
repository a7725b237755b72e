package benchmark

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/mgarzon/floracast-go/internal/conf"
	"github.com/mgarzon/floracast-go/internal/forecast"
	"github.com/mgarzon/floracast-go/internal/observability"
)

var (
	domain      string
	duration    time.Duration
	compareMode bool
	compareSize int
)

func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "benchmark",
		Short: "Run prediction engine benchmark",
		RunE: func(cmd *cobra.Command, args []string) error {
			if duration < time.Second || duration > 10*time.Minute {
				return fmt.Errorf("duration must be between 1s and 10m, got %v", duration)
			}
			if compareMode {
				return runComparison(settings, compareSize)
			}
			return runBenchmark(settings)
		},
	}

	cmd.Flags().StringVar(&domain, "domain", conf.DomainPollination, "Prediction domain to benchmark")
	cmd.Flags().DurationVar(&duration, "duration", 10*time.Second, "how long to run each benchmark phase")
	cmd.Flags().BoolVar(&compareMode, "compare", false, "compare N sequential predictions vs 1 batch of N to measure worker pool efficiency")
	cmd.Flags().IntVarP(&compareSize, "batch", "b", 256, "batch size for --compare (2-10000)")

	return cmd
}

// benchmarkRequest returns a synthetic refined-stage request. The
// species is deliberately one the encoders have never seen, which is
// the slowest path (out-of-vocabulary fallback plus full feature
// assembly).
func benchmarkRequest() *forecast.PredictionRequest {
	return &forecast.PredictionRequest{
		Species:         "Benchmarkia sintetica",
		Genus:           "Benchmarkia",
		Climate:         "T",
		Location:        "Vivero Central",
		PollinationType: "manual",
		Quantity:        12,
		Availability:    1,
		EventDate:       time.Now().Format(time.DateOnly),
	}
}

func runBenchmark(settings *conf.Settings) error {
	// Register the metric collectors so the engine records into them.
	// With the endpoint enabled the run can be scraped live.
	metrics, err := observability.NewMetrics()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	var wg sync.WaitGroup
	quitChan := make(chan struct{})
	if settings.Metrics.Enabled {
		endpoint, err := observability.NewEndpoint(settings, metrics)
		if err != nil {
			return err
		}
		endpoint.Start(&wg, quitChan)
		defer func() {
			close(quitChan)
			wg.Wait()
		}()
	}

	engine, err := forecast.New(settings)
	if err != nil {
		return fmt.Errorf("failed to initialize prediction engine: %w", err)
	}
	defer engine.Close()

	req := benchmarkRequest()

	fmt.Printf("🚀 Benchmarking refined predictions for domain %s\n", domain)

	// Warmup loads the artifacts and stabilizes the allocator.
	fmt.Println("⏳ Warming up...")
	for range 100 {
		if result := engine.Refined(domain, req, nil); result.IsError() {
			return fmt.Errorf("warmup prediction failed: %s", result.ErrorCode)
		}
	}

	fmt.Printf("⏳ Running benchmark for %v...\n", duration)
	latencies := make([]time.Duration, 0, 1<<20)
	startTime := time.Now()
	var totalDuration time.Duration

	for time.Since(startTime) < duration {
		predStart := time.Now()
		result := engine.Refined(domain, req, nil)
		predTime := time.Since(predStart)
		if result.IsError() {
			return fmt.Errorf("prediction failed: %s", result.ErrorCode)
		}

		totalDuration += predTime
		latencies = append(latencies, predTime)

		if len(latencies)%5000 == 0 {
			avgTime := totalDuration / time.Duration(len(latencies))
			fmt.Printf("\r🔄 Predictions: \033[1;36m%d\033[0m, Average time: \033[1;33m%v\033[0m",
				len(latencies), avgTime.Round(time.Microsecond))
		}
	}
	fmt.Println() // Add newline after progress display

	elapsed := time.Since(startTime)
	avgTime := totalDuration / time.Duration(len(latencies))
	throughput := float64(len(latencies)) / elapsed.Seconds()
	slices.Sort(latencies)

	fmt.Printf("\nResults:\n")
	fmt.Printf("Metric            Value\n")
	fmt.Printf("────────────────  ──────────────────────\n")
	fmt.Printf("Predictions       %d\n", len(latencies))
	fmt.Printf("Average           %v\n", avgTime.Round(time.Microsecond))
	fmt.Printf("p50               %v\n", percentile(latencies, 0.50).Round(time.Microsecond))
	fmt.Printf("p90               %v\n", percentile(latencies, 0.90).Round(time.Microsecond))
	fmt.Printf("p99               %v\n", percentile(latencies, 0.99).Round(time.Microsecond))
	fmt.Printf("Throughput        %.0f predictions/sec\n", throughput)
	fmt.Printf("────────────────  ──────────────────────\n")

	rating, description := getPerformanceRating(float64(avgTime.Microseconds()) / 1000)
	fmt.Printf("\nSystem Rating: %s, %s\n", rating, description)

	return nil
}

func getPerformanceRating(predictionTimeMs float64) (rating, description string) {
	switch {
	case predictionTimeMs > 100:
		return "❌ Very Poor", "System is too slow for batch campaign processing"
	case predictionTimeMs > 50:
		return "⚠️ Poor", "System may struggle with large campaigns"
	case predictionTimeMs > 10:
		return "👍 Decent", "System should handle nursery-scale campaigns"
	case predictionTimeMs > 1:
		return "✨ Good", "System will perform well"
	case predictionTimeMs > 0.1:
		return "🌟 Very Good", "System will perform very well"
	default:
		return "🏆 Excellent", "System will perform excellently"
	}
}

// runComparison compares N sequential predictions vs 1 batch of N to
// measure the actual gain from the batch worker pool.
func runComparison(settings *conf.Settings, n int) error {
	if n < 2 || n > 10000 {
		return fmt.Errorf("batch size must be between 2 and 10000, got %d", n)
	}

	fmt.Printf("🔬 Batch Efficiency Comparison (N=%d)\n", n)
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println("Comparing N sequential predictions vs 1 batch of N")
	fmt.Println("If the worker pool is effective, batch should be significantly faster.")

	engine, err := forecast.New(settings)
	if err != nil {
		return fmt.Errorf("failed to initialize prediction engine: %w", err)
	}
	defer engine.Close()

	req := benchmarkRequest()
	items := make([]forecast.BatchItem, n)
	for i := range n {
		items[i] = forecast.BatchItem{Domain: domain, Stage: forecast.StageRefined, Request: req}
	}

	const iterations = 10
	ctx := context.Background()

	fmt.Println("⏳ Warming up...")
	for range 100 {
		_ = engine.Refined(domain, req, nil)
	}

	fmt.Printf("\n📊 Test 1: %d sequential predictions (%d iterations)\n", n, iterations)
	sequentialTimes := make([]time.Duration, 0, iterations)
	for iter := range iterations {
		start := time.Now()
		for range n {
			if result := engine.Refined(domain, req, nil); result.IsError() {
				return fmt.Errorf("prediction failed: %s", result.ErrorCode)
			}
		}
		elapsed := time.Since(start)
		sequentialTimes = append(sequentialTimes, elapsed)
		fmt.Printf("   Iteration %d: %v (%.3f ms/prediction)\n", iter+1, elapsed.Round(time.Microsecond),
			float64(elapsed.Microseconds())/float64(n)/1000)
	}

	fmt.Printf("\n📊 Test 2: 1 batch of %d predictions (%d iterations)\n", n, iterations)
	batchTimes := make([]time.Duration, 0, iterations)
	for iter := range iterations {
		start := time.Now()
		if _, err := engine.Batch(ctx, items); err != nil {
			return fmt.Errorf("batch failed: %w", err)
		}
		elapsed := time.Since(start)
		batchTimes = append(batchTimes, elapsed)
		fmt.Printf("   Iteration %d: %v (%.3f ms/prediction)\n", iter+1, elapsed.Round(time.Microsecond),
			float64(elapsed.Microseconds())/float64(n)/1000)
	}

	// Averages exclude the first iteration as warmup.
	avgSequential := average(sequentialTimes[1:])
	avgBatch := average(batchTimes[1:])

	fmt.Println("\n━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("Results (average of %d iterations, excluding warmup):\n\n", iterations-1)
	fmt.Printf("Method              Total Time    Per-Prediction\n")
	fmt.Printf("──────────────────  ────────────  ──────────────\n")
	fmt.Printf("Sequential (N×1)    %9.1f ms  %11.3f ms\n",
		float64(avgSequential.Microseconds())/1000,
		float64(avgSequential.Microseconds())/float64(n)/1000)
	fmt.Printf("Batch (1×N)         %9.1f ms  %11.3f ms\n",
		float64(avgBatch.Microseconds())/1000,
		float64(avgBatch.Microseconds())/float64(n)/1000)
	fmt.Printf("──────────────────  ────────────  ──────────────\n")

	switch {
	case avgSequential > avgBatch:
		speedup := float64(avgSequential-avgBatch) / float64(avgSequential) * 100
		fmt.Printf("\n✅ Batch is %.1f%% faster than sequential\n", speedup)
	case avgBatch > avgSequential:
		slowdown := float64(avgBatch-avgSequential) / float64(avgSequential) * 100
		fmt.Printf("\n❌ Batch is %.1f%% SLOWER than sequential\n", slowdown)
		fmt.Println("   This suggests the per-item work is too small to amortize the pool on this hardware.")
	default:
		fmt.Println("\n⚖️  No significant difference between batch and sequential")
	}

	return nil
}

// percentile indexes into an already sorted latency slice.
func percentile(sorted []time.Duration, q float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(float64(len(sorted)-1) * q)
	return sorted[idx]
}

func average(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range durations {
		total += d
	}
	return total / time.Duration(len(durations))
}
