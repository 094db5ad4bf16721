package store

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bodycomp/bodycomp/internal/errors"
	"github.com/bodycomp/bodycomp/internal/logging"
	"github.com/bodycomp/bodycomp/internal/models"
)

// Header is the column row of the persisted store.
const Header = `Date,"Weight (kg)","Fat mass (kg)","Bone mass (kg)","Muscle mass (kg)","Hydration (kg)",Comments`

// TimeLayout is the store's date format, second precision.
const TimeLayout = "2006-01-02 15:04:05"

const fieldCount = 7

// CSV is the persisted measurement store: a flat text table keyed by
// timestamp, one measurement per line, always rewritten newest-first.
// There are no transactional guarantees; a rewrite is last-writer-wins.
type CSV struct {
	path   string
	logger *logging.Logger
}

// NewCSV creates a store handle for path. The file may not exist yet.
func NewCSV(path string, logger *logging.Logger) *CSV {
	return &CSV{path: path, logger: logger}
}

// Path returns the store file location.
func (s *CSV) Path() string {
	return s.path
}

// Exists reports whether the store file is present on disk.
func (s *CSV) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Load reads every parsable row. A missing file yields an empty slice.
// Malformed rows (unparsable timestamp, short rows) are skipped
// individually and never abort the load.
func (s *CSV) Load() ([]models.Measurement, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &errors.ErrFileRead{Path: s.path, Err: err}
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	var out []models.Measurement
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// A structurally broken line; skip it, keep the rest.
			continue
		}
		if first {
			first = false
			if len(record) > 0 && record[0] == "Date" {
				continue
			}
		}

		m, ok := s.parseRow(record)
		if !ok {
			continue
		}
		out = append(out, m)
	}

	return out, nil
}

func (s *CSV) parseRow(record []string) (models.Measurement, bool) {
	if len(record) < fieldCount {
		if s.logger != nil {
			s.logger.Warn("skipping malformed store row", "fields", len(record))
		}
		return models.Measurement{}, false
	}

	ts, err := time.ParseInLocation(TimeLayout, strings.Trim(record[0], `"`), time.Local)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("skipping store row with unparsable date", "date", record[0])
		}
		return models.Measurement{}, false
	}

	return models.Measurement{
		Timestamp:    ts,
		WeightKg:     parseOptional(record[1]),
		FatMassKg:    parseOptional(record[2]),
		BoneMassKg:   parseOptional(record[3]),
		MuscleMassKg: parseOptional(record[4]),
		HydrationKg:  parseOptional(record[5]),
		Source:       models.SourceWithings,
		Comment:      record[6],
	}, true
}

func parseOptional(field string) *float64 {
	field = strings.TrimSpace(field)
	if field == "" {
		return nil
	}
	v, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return nil
	}
	return &v
}

// Write replaces the store content with the given measurements, sorted
// strictly descending by timestamp. The parent directory is created
// when missing.
func (s *CSV) Write(measurements []models.Measurement) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &errors.ErrDirectoryCreate{Path: dir, Err: err}
	}

	sorted := make([]models.Measurement, len(measurements))
	copy(sorted, measurements)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})

	f, err := os.Create(s.path)
	if err != nil {
		return &errors.ErrFileWrite{Path: s.path, Err: err}
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintln(w, Header)
	for _, m := range sorted {
		fmt.Fprintln(w, formatRow(m))
	}
	if err := w.Flush(); err != nil {
		return &errors.ErrFileWrite{Path: s.path, Err: err}
	}
	return nil
}

func formatRow(m models.Measurement) string {
	fields := []string{
		`"` + m.Timestamp.Format(TimeLayout) + `"`,
		formatOptional(m.WeightKg),
		formatOptional(m.FatMassKg),
		formatOptional(m.BoneMassKg),
		formatOptional(m.MuscleMassKg),
		formatOptional(m.HydrationKg),
		m.Comment,
	}
	return strings.Join(fields, ",")
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

// NewestTimestamp returns the timestamp of the newest stored row. Since
// the file is always newest-first, that is the first data row. The
// second return is false when the store is missing or empty.
func (s *CSV) NewestTimestamp() (time.Time, bool) {
	rows, err := s.Load()
	if err != nil || len(rows) == 0 {
		return time.Time{}, false
	}

	newest := rows[0].Timestamp
	for _, r := range rows[1:] {
		if r.Timestamp.After(newest) {
			newest = r.Timestamp
		}
	}
	return newest, true
}

// Count returns the number of parsable stored rows.
func (s *CSV) Count() (int, error) {
	rows, err := s.Load()
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// Clear deletes the store file. Absence is not an error.
func (s *CSV) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
