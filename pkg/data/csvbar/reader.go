package csvbar

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/SiloFlight/Strat-Sim/pkg/common"
	"github.com/SiloFlight/Strat-Sim/pkg/utility/fixed"
)

var header = []string{"start_ts", "end_ts", "open", "high", "low", "close", "volume", "trades", "vwap"}

// Reader loads one symbol's bars from a CSV export. Exports from spreadsheet
// tools are often UTF-16 with a BOM; those are transparently decoded.
type Reader struct {
	dataSourceName string
	symbol         string
}

func NewReader(dataSourceName, symbol string) *Reader {
	return &Reader{
		dataSourceName: dataSourceName,
		symbol:         symbol,
	}
}

func (r *Reader) LoadBars(handler func(bar common.Bar) error) error {
	f, err := os.Open(r.dataSourceName)
	if err != nil {
		return fmt.Errorf("unable to open data source %q: %w", r.dataSourceName, err)
	}
	defer func() {
		_ = f.Close()
	}()

	br := bufio.NewReader(f)
	if b, _ := br.Peek(2); len(b) >= 2 && ((b[0] == 0xFF && b[1] == 0xFE) || (b[0] == 0xFE && b[1] == 0xFF)) {
		if _, err := f.Seek(0, 0); err != nil {
			return fmt.Errorf("unable to rewind data source: %w", err)
		}
		tr := transform.NewReader(f, unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder())
		br = bufio.NewReader(tr)
	}

	c := csv.NewReader(br)
	c.FieldsPerRecord = len(header)

	first, err := c.Read()
	if err != nil {
		return fmt.Errorf("unable to read header: %w", err)
	}
	if err := validateHeader(first); err != nil {
		return err
	}

	for {
		record, err := c.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("unable to read record: %w", err)
		}

		bar, err := r.parseRecord(record)
		if err != nil {
			return err
		}
		if err := handler(bar); err != nil {
			return fmt.Errorf("error processing bar: %w", err)
		}
	}
}

func (r *Reader) parseRecord(record []string) (common.Bar, error) {
	var bar common.Bar
	var err error

	bar.Symbol = r.symbol
	if bar.StartTime, err = time.Parse(time.RFC3339, record[0]); err != nil {
		return bar, fmt.Errorf("unable to parse start_ts %q: %w", record[0], err)
	}
	if bar.EndTime, err = time.Parse(time.RFC3339, record[1]); err != nil {
		return bar, fmt.Errorf("unable to parse end_ts %q: %w", record[1], err)
	}
	if bar.Open, err = fixed.FromString(record[2]); err != nil {
		return bar, fmt.Errorf("unable to parse open %q: %w", record[2], err)
	}
	if bar.High, err = fixed.FromString(record[3]); err != nil {
		return bar, fmt.Errorf("unable to parse high %q: %w", record[3], err)
	}
	if bar.Low, err = fixed.FromString(record[4]); err != nil {
		return bar, fmt.Errorf("unable to parse low %q: %w", record[4], err)
	}
	if bar.Close, err = fixed.FromString(record[5]); err != nil {
		return bar, fmt.Errorf("unable to parse close %q: %w", record[5], err)
	}
	if bar.Volume, err = strconv.ParseInt(record[6], 10, 64); err != nil {
		return bar, fmt.Errorf("unable to parse volume %q: %w", record[6], err)
	}
	if bar.Trades, err = strconv.ParseInt(record[7], 10, 64); err != nil {
		return bar, fmt.Errorf("unable to parse trades %q: %w", record[7], err)
	}
	if bar.VWAP, err = fixed.FromString(record[8]); err != nil {
		return bar, fmt.Errorf("unable to parse vwap %q: %w", record[8], err)
	}
	return bar, nil
}

func validateHeader(record []string) error {
	if len(record) != len(header) {
		return fmt.Errorf("unexpected header length %d, want %d", len(record), len(header))
	}
	for i, field := range record {
		if !strings.EqualFold(strings.TrimPrefix(field, "\ufeff"), header[i]) {
			return fmt.Errorf("unexpected header field %q at position %d, want %q", field, i, header[i])
		}
	}
	return nil
}
