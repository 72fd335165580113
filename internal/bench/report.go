package bench

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/klauspost/compress/zstd"
)

// Report is one benchmark run's result, keyed by a fresh UUID per run the
// way a reproducible-benchmark pipeline correlates reports back to the
// config that produced them.
type Report struct {
	RunID       string        `json:"run_id"`
	N           int           `json:"n"`
	Direction   string        `json:"direction"`
	Mode        string        `json:"mode"`
	Repeats     int           `json:"repeats"`
	DurationsNs []int64       `json:"durations_ns"`
	BytesMoved  uint64        `json:"bytes_moved"`
	TotalTime   time.Duration `json:"-"`
}

// NewReport starts a report for a run, stamping it with a fresh run ID.
func NewReport(cfg Config) *Report {
	return &Report{
		RunID:     uuid.NewString(),
		N:         cfg.N,
		Direction: cfg.Direction,
		Mode:      cfg.Mode,
		Repeats:   cfg.Repeats,
	}
}

// AddSample records one repeat's wall-clock duration and the number of
// key bytes the sort moved (N*W, counted once per scatter pass actually
// executed is a finer-grained figure than the harness needs; it reports
// the coarser "bytes read per repeat" figure instead).
func (r *Report) AddSample(d time.Duration, bytesMoved uint64) {
	r.DurationsNs = append(r.DurationsNs, int64(d))
	r.BytesMoved += bytesMoved
	r.TotalTime += d
}

// Summary renders a one-line human-readable result, the way a benchmark
// harness logs a result to stdout between runs.
func (r *Report) Summary() string {
	if r.TotalTime == 0 {
		return fmt.Sprintf("run %s: n=%d repeats=%d (no samples)", r.RunID, r.N, r.Repeats)
	}
	bps := float64(r.BytesMoved) / r.TotalTime.Seconds()
	return fmt.Sprintf("run %s: n=%d dir=%s mode=%s repeats=%d total=%s throughput=%s/s",
		r.RunID, r.N, r.Direction, r.Mode, r.Repeats, r.TotalTime, humanize.Bytes(uint64(bps)))
}

// WriteCompressed marshals the report as JSON (via jsoniter, matching the
// rest of the ecosystem's preference for it over encoding/json on the hot
// reporting path) and writes it zstd-compressed to path.
func WriteCompressed(path string, r *Report) error {
	payload, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file %q: %w", path, err)
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f)
	if err != nil {
		return fmt.Errorf("create zstd writer: %w", err)
	}
	if _, err := enc.Write(payload); err != nil {
		enc.Close()
		return fmt.Errorf("write compressed report: %w", err)
	}
	return enc.Close()
}

// ReadCompressed reverses WriteCompressed, for tests and tooling that
// inspect a prior run's report.
func ReadCompressed(path string) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open report file %q: %w", path, err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("create zstd reader: %w", err)
	}
	defer dec.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, dec); err != nil {
		return nil, fmt.Errorf("decompress report: %w", err)
	}

	var r Report
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(buf.Bytes(), &r); err != nil {
		return nil, fmt.Errorf("unmarshal report: %w", err)
	}
	return &r, nil
}
