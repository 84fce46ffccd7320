package file

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/seu-repo/utility-advisor/internal/domain"
	"github.com/seu-repo/utility-advisor/internal/ports"
)

// FixtureLoader resolves interval references to .json or .csv files under a base directory
type FixtureLoader struct {
	baseDir string
	log     *zap.Logger
}

func NewFixtureLoader(baseDir string, log *zap.Logger) ports.TelemetryLoader {
	return &FixtureLoader{baseDir: baseDir, log: log}
}

// LoadInterval reads a fixture. JSON may be a bare array of {"ts","kw"} objects or an
// object with an "interval" array. CSV needs a timestamp column (ts or timestamp) and
// a kw column; an empty kw cell is a null reading.
func (l *FixtureLoader) LoadInterval(ctx context.Context, ref string) ([]domain.RawIntervalPoint, error) {
	path, err := l.resolve(ref)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrNoIntervalData
		}
		return nil, fmt.Errorf("open fixture: %w", err)
	}
	defer f.Close()

	var points []domain.RawIntervalPoint
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		points, err = decodeJSON(f)
	case ".csv":
		points, err = decodeCSV(f)
	default:
		return nil, fmt.Errorf("unsupported fixture format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("decode fixture %s: %w", filepath.Base(path), err)
	}

	l.log.Debug("Loaded interval fixture", zap.String("file", filepath.Base(path)), zap.Int("points", len(points)))
	if len(points) == 0 {
		return nil, domain.ErrNoIntervalData
	}
	return points, nil
}

// resolve keeps references inside baseDir when one is set
func (l *FixtureLoader) resolve(ref string) (string, error) {
	if ref == "" {
		return "", domain.ErrNoIntervalData
	}
	if l.baseDir == "" {
		return filepath.Clean(ref), nil
	}
	path := filepath.Clean(ref)
	if !filepath.IsAbs(path) {
		path = filepath.Join(l.baseDir, ref)
	}
	rel, err := filepath.Rel(l.baseDir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("fixture reference %q escapes %s", ref, l.baseDir)
	}
	return path, nil
}

func decodeJSON(r io.Reader) ([]domain.RawIntervalPoint, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var points []domain.RawIntervalPoint
		err := json.Unmarshal(data, &points)
		return points, err
	}
	var wrapped struct {
		Interval []domain.RawIntervalPoint `json:"interval"`
	}
	err = json.Unmarshal(data, &wrapped)
	return wrapped.Interval, err
}

func decodeCSV(r io.Reader) ([]domain.RawIntervalPoint, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	tsCol, kwCol := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "ts", "timestamp":
			tsCol = i
		case "kw":
			kwCol = i
		}
	}
	if tsCol < 0 || kwCol < 0 {
		return nil, errors.New("csv header needs timestamp and kw columns")
	}

	var points []domain.RawIntervalPoint
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		p := domain.RawIntervalPoint{}
		if tsCol < len(rec) {
			p.Timestamp = strings.TrimSpace(rec[tsCol])
		}
		if kwCol < len(rec) {
			if cell := strings.TrimSpace(rec[kwCol]); cell != "" {
				// unparseable readings stay nil and are counted invalid downstream
				if v, err := strconv.ParseFloat(cell, 64); err == nil {
					p.KW = &v
				}
			}
		}
		points = append(points, p)
	}
	return points, nil
}
