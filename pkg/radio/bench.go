package radio

import "fmt"

// DefaultBenchmarkReads is the number of timer reads in a benchmark.
const DefaultBenchmarkReads = 2048

// BenchmarkResult is the outcome of reading the timer register n times.
type BenchmarkResult struct {
	Reads   int
	Clocks  uint32
	Bytes   int
	Seconds float64
	MBps    float64
}

func (r BenchmarkResult) String() string {
	return fmt.Sprintf("%d reads in %d clocks: %d bytes in %f s, %f Mbytes/sec",
		r.Reads, r.Clocks, r.Bytes, r.Seconds, r.MBps)
}

// NewBenchmarkResult computes throughput for n 32-bit reads that took
// stop-start clocks at sysclk Hz. The counter may wrap once.
func NewBenchmarkResult(n int, start, stop uint32, sysclk float64) BenchmarkResult {
	r := BenchmarkResult{
		Reads:  n,
		Clocks: stop - start,
		Bytes:  4 * n,
	}
	if sysclk > 0 {
		r.Seconds = float64(r.Clocks) / sysclk
	}
	if r.Seconds > 0 {
		r.MBps = float64(r.Bytes) / r.Seconds / 1e6
	}
	return r
}

// Benchmark measures register read throughput by reading the timer n times.
func (t *Tuner) Benchmark(n int) (BenchmarkResult, error) {
	if n <= 0 {
		n = DefaultBenchmarkReads
	}

	start, err := t.Timer()
	if err != nil {
		return BenchmarkResult{}, err
	}
	stop := start
	for i := 0; i < n; i++ {
		if stop, err = t.Timer(); err != nil {
			return BenchmarkResult{}, err
		}
	}

	return NewBenchmarkResult(n, start, stop, t.sysclk()), nil
}
