// Package hitlog records inbound API hits to an append-only file and
// summarizes them by time bucket. The line format is a parse contract:
//
//	<RFC3339 timestamp> | <METHOD> | <url> | <remote ip>
package hitlog

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const fileName = "api_hits.log"

// Recorder appends one line per API hit. Appends are serialized; a failed
// write is logged and dropped rather than failing the request.
type Recorder struct {
	mu   sync.Mutex
	path string
	log  *zerolog.Logger
}

// NewRecorder ensures dir exists and returns a recorder writing to
// dir/api_hits.log.
func NewRecorder(dir string, logger *zerolog.Logger) (*Recorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	return &Recorder{path: filepath.Join(dir, fileName), log: logger}, nil
}

// Record appends a hit line stamped with the current time.
func (r *Recorder) Record(method, url, ip string) {
	r.record(time.Now().UTC(), method, url, ip)
}

func (r *Recorder) record(ts time.Time, method, url, ip string) {
	line := fmt.Sprintf("%s | %s | %s | %s\n", ts.Format(time.RFC3339), method, url, ip)

	r.mu.Lock()
	defer r.mu.Unlock()
	f, err := os.OpenFile(r.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		r.log.Error().Err(err).Msg("failed to open API hit log")
		return
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		r.log.Error().Err(err).Msg("failed to write API hit log")
	}
}

// GroupBy buckets for Summarize.
const (
	GroupByDay   = "day"
	GroupByMonth = "month"
	GroupByYear  = "year"
)

// Summary maps time bucket -> "METHOD URL" -> hit count.
type Summary map[string]map[string]int

// Summarize reads the hit log and counts hits per bucket and per
// "METHOD URL" key, skipping entries outside [start, end] when either
// bound is non-zero. Unparseable lines are skipped.
func (r *Recorder) Summarize(groupBy string, start, end time.Time) (Summary, error) {
	f, err := os.Open(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Summary{}, nil
		}
		return nil, fmt.Errorf("open hit log: %w", err)
	}
	defer f.Close()

	summary := Summary{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.Split(line, "|")
		if len(parts) < 3 {
			continue
		}
		ts, err := time.Parse(time.RFC3339, strings.TrimSpace(parts[0]))
		if err != nil {
			continue
		}
		if !start.IsZero() && ts.Before(start) {
			continue
		}
		if !end.IsZero() && ts.After(end) {
			continue
		}

		bucket := bucketKey(ts, groupBy)
		hit := strings.TrimSpace(parts[1]) + " " + strings.TrimSpace(parts[2])
		if summary[bucket] == nil {
			summary[bucket] = map[string]int{}
		}
		summary[bucket][hit]++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read hit log: %w", err)
	}
	return summary, nil
}

func bucketKey(ts time.Time, groupBy string) string {
	switch groupBy {
	case GroupByYear:
		return ts.Format("2006")
	case GroupByMonth:
		return ts.Format("2006-01")
	default:
		return ts.Format("2006-01-02")
	}
}
