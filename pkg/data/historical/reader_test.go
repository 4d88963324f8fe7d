package historical

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SiloFlight/Strat-Sim/pkg/common"
	"github.com/SiloFlight/Strat-Sim/pkg/utility/fixed"
)

var packStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// writeBarFile packs n one-minute bars with open price i into a binary file.
func writeBarFile(t *testing.T, n int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "EURUSD.bin")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, f.Close())
	}()

	for i := 0; i < n; i++ {
		bar := common.Bar{
			StartTime: packStart.Add(time.Duration(i) * time.Minute),
			EndTime:   packStart.Add(time.Duration(i+1) * time.Minute),
			Open:      fixed.FromInt64(int64(i), 0),
			High:      fixed.FromInt64(int64(i+1), 0),
			Low:       fixed.FromInt64(int64(i), 0),
			Close:     fixed.FromInt64(int64(i+1), 0),
			Volume:    int64(100 + i),
			Trades:    int64(10 + i),
			VWAP:      fixed.FromInt64(int64(i), 0),
		}
		require.NoError(t, binary.Write(f, binary.LittleEndian, FromBar(bar)))
	}
	return path
}

func openSource(t *testing.T, path string) *Source[BinaryBar] {
	t.Helper()
	source := NewSource[BinaryBar](path)
	require.NoError(t, source.Open())
	t.Cleanup(source.Close)
	return source
}

func TestSource_EntryCount(t *testing.T) {
	source := openSource(t, writeBarFile(t, 7))

	count, err := source.EntryCount()
	require.NoError(t, err)
	assert.Equal(t, int64(7), count)
}

func TestSource_RejectsTruncatedFile(t *testing.T) {
	path := writeBarFile(t, 3)
	require.NoError(t, os.Truncate(path, 100))

	source := NewSource[BinaryBar](path)
	_, err := source.EntryCount()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a multiple")
}

func TestSource_ReadRoundTrip(t *testing.T) {
	source := openSource(t, writeBarFile(t, 5))

	var entry BinaryBar
	require.NoError(t, source.Read(3, &entry))

	assert.Equal(t, packStart.Add(3*time.Minute).UnixNano(), entry.StartTime)
	assert.Equal(t, 3.0, entry.Open)
	assert.Equal(t, int64(103), entry.Volume)

	require.ErrorIs(t, source.Read(5, &entry), ErrEof)
}

func TestBarReader_ReadsRange(t *testing.T) {
	source := openSource(t, writeBarFile(t, 10))

	reader := NewBarReader(source, "EURUSD",
		packStart.Add(3*time.Minute), packStart.Add(6*time.Minute))

	var bars []common.Bar
	for {
		bar, err := reader.GetNext()
		if err != nil {
			require.ErrorIs(t, err, ErrEof)
			break
		}
		bars = append(bars, bar)
	}

	require.Len(t, bars, 4)
	assert.Equal(t, "EURUSD", bars[0].Symbol)
	assert.True(t, bars[0].StartTime.Equal(packStart.Add(3*time.Minute)))
	assert.True(t, bars[3].StartTime.Equal(packStart.Add(6*time.Minute)))
	assert.True(t, bars[0].Open.Eq(fixed.FromInt64(3, 0)))
	assert.Equal(t, int64(103), bars[0].Volume)
}

func TestBarReader_RangePastEndOfFile(t *testing.T) {
	source := openSource(t, writeBarFile(t, 5))

	reader := NewBarReader(source, "EURUSD",
		packStart.Add(3*time.Minute), packStart.Add(time.Hour))

	read := 0
	for {
		_, err := reader.GetNext()
		if err != nil {
			require.ErrorIs(t, err, ErrEof)
			break
		}
		read++
	}
	assert.Equal(t, 2, read)
}

func TestBarReader_RangeBeyondData(t *testing.T) {
	source := openSource(t, writeBarFile(t, 5))

	reader := NewBarReader(source, "EURUSD",
		packStart.Add(time.Hour), packStart.Add(2*time.Hour))

	_, err := reader.GetNext()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no entry found")
}

func TestBarReader_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.bin")
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	source := openSource(t, path)

	reader := NewBarReader(source, "EURUSD", packStart, packStart.Add(time.Hour))
	_, err := reader.GetNext()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entry count is zero")
}

func TestBinaryBar_RoundTrip(t *testing.T) {
	original := common.Bar{
		StartTime: packStart,
		EndTime:   packStart.Add(time.Minute),
		Open:      fixed.FromFloat64(1.25),
		High:      fixed.FromFloat64(1.50),
		Low:       fixed.FromFloat64(1.00),
		Close:     fixed.FromFloat64(1.25),
		Volume:    42,
		Trades:    7,
		VWAP:      fixed.FromFloat64(1.25),
	}

	binBar := FromBar(original)
	var back common.Bar
	binBar.ToBar(&back)

	assert.True(t, back.StartTime.Equal(original.StartTime))
	assert.True(t, back.EndTime.Equal(original.EndTime))
	assert.True(t, back.Open.Eq(original.Open))
	assert.True(t, back.High.Eq(original.High))
	assert.True(t, back.Low.Eq(original.Low))
	assert.True(t, back.Close.Eq(original.Close))
	assert.Equal(t, original.Volume, back.Volume)
	assert.Equal(t, original.Trades, back.Trades)
}
