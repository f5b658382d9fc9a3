package backtest

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/yourusername/pairtrade-analytics/pkg/series"
)

// PairDataReader loads bar CSVs for the configured pair and aligns them
// onto a common timestamp index.
type PairDataReader struct {
	config *Config
}

// NewPairDataReader creates a reader for the configured pair.
func NewPairDataReader(config *Config) *PairDataReader {
	return &PairDataReader{config: config}
}

// Load reads <data_path>/<symbol>.csv for both legs and returns the aligned
// pair. Bars present for only one leg are dropped during alignment.
func (r *PairDataReader) Load() (*series.PricePair, error) {
	s1, err := r.loadSeries(r.config.Pair.Symbol1)
	if err != nil {
		return nil, err
	}
	s2, err := r.loadSeries(r.config.Pair.Symbol2)
	if err != nil {
		return nil, err
	}

	pair, err := series.Align(s1, s2)
	if err != nil {
		return nil, fmt.Errorf("align %s/%s: %w", s1.Symbol, s2.Symbol, err)
	}

	log.Printf("[DataReader] Aligned %d bars for %s/%s (%d / %d raw)",
		pair.Len(), s1.Symbol, s2.Symbol, s1.Len(), s2.Len())
	return pair, nil
}

func (r *PairDataReader) loadSeries(symbol string) (*series.PriceSeries, error) {
	filePath := filepath.Join(r.config.Pair.DataPath, symbol+".csv")
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open data file: %w", err)
	}
	defer file.Close()

	s, err := ReadBarCSV(file, symbol)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filePath, err)
	}
	return s, nil
}

// ReadBarCSV parses bar records into a price series. Expected columns:
// timestamp,close[,volume] or timestamp,open,high,low,close[,volume].
// Timestamps are Unix seconds or RFC3339; a header row is skipped.
func ReadBarCSV(reader io.Reader, symbol string) (*series.PriceSeries, error) {
	cr := csv.NewReader(reader)
	cr.TrimLeadingSpace = true

	s := &series.PriceSeries{Symbol: symbol}
	line := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line+1, err)
		}
		line++

		if len(record) < 2 {
			return nil, fmt.Errorf("line %d: expected at least 2 columns, got %d", line, len(record))
		}

		timestamp, err := parseTimestamp(record[0])
		if err != nil {
			if line == 1 {
				// Header row.
				continue
			}
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		closeCol, volumeCol := 1, 2
		if len(record) >= 5 {
			// OHLCV layout: close is the 5th column.
			closeCol, volumeCol = 4, 5
		}

		price, err := strconv.ParseFloat(record[closeCol], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad price %q: %w", line, record[closeCol], err)
		}

		volume := 0.0
		if volumeCol < len(record) {
			if volume, err = strconv.ParseFloat(record[volumeCol], 64); err != nil {
				return nil, fmt.Errorf("line %d: bad volume %q: %w", line, record[volumeCol], err)
			}
		}

		s.Append(timestamp, price, volume)
	}

	if s.Len() == 0 {
		return nil, fmt.Errorf("no bars in input")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func parseTimestamp(field string) (int64, error) {
	field = strings.TrimSpace(field)
	if unix, err := strconv.ParseInt(field, 10, 64); err == nil {
		// Accept seconds, milliseconds or nanoseconds by magnitude.
		switch {
		case unix > 1e17:
			return unix, nil
		case unix > 1e14:
			return unix * int64(time.Microsecond), nil
		case unix > 1e11:
			return unix * int64(time.Millisecond), nil
		default:
			return unix * int64(time.Second), nil
		}
	}
	if ts, err := time.Parse(time.RFC3339, field); err == nil {
		return ts.UnixNano(), nil
	}
	return 0, fmt.Errorf("unparseable timestamp %q", field)
}
