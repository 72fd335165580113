package bench_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/janwillem32/rsbd8/internal/bench"
)

func TestConfigValidate(t *testing.T) {
	cfg := bench.Config{N: 100, Repeats: 1, Direction: "asc-fwd", Mode: "auto"}
	require.NoError(t, cfg.Validate())

	bad := bench.Config{N: -1, Repeats: 1}
	require.Error(t, bad.Validate())

	badRepeats := bench.Config{N: 1, Repeats: 0}
	require.Error(t, badRepeats.Validate())

	badDir := bench.Config{N: 1, Repeats: 1, Direction: "sideways"}
	require.Error(t, badDir.Validate())
}

func TestLoadConfigFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("seed: 7\nn: 1000\ndirection: asc-fwd\nmode: auto\nrepeats: 2\n"), 0o644))

	cfg, err := bench.LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, uint64(7), cfg.Seed)
	require.Equal(t, 1000, cfg.N)
	require.Equal(t, 2, cfg.Repeats)
}

func TestRunProducesSortedSamplesAndReport(t *testing.T) {
	cfg := bench.Config{Seed: 1, N: 2048, Direction: "asc-fwd", Mode: "auto", Repeats: 3}
	report, err := bench.Run(cfg, nil)
	require.NoError(t, err)
	require.Equal(t, 3, len(report.DurationsNs))
	require.NotEmpty(t, report.RunID)
	require.Equal(t, uint64(2048*4*3), report.BytesMoved)
	require.NotEmpty(t, report.Summary())
}

func TestReportRoundTripsThroughCompressedFile(t *testing.T) {
	cfg := bench.Config{Seed: 2, N: 16, Direction: "asc-fwd", Mode: "auto", Repeats: 1}
	report, err := bench.Run(cfg, nil)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "report.json.zst")
	require.NoError(t, bench.WriteCompressed(path, report))

	got, err := bench.ReadCompressed(path)
	require.NoError(t, err)
	require.Equal(t, report.RunID, got.RunID)
	require.Equal(t, report.N, got.N)
	require.Equal(t, report.BytesMoved, got.BytesMoved)
}
