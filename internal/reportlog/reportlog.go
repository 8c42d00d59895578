// Package reportlog appends completed job summaries to daily JSON-lines
// files and compresses old files past the retention window.
package reportlog

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"fewknow/internal/types"
)

var mu sync.Mutex

// Entry is one logged job outcome.
type Entry struct {
	Time       string `json:"time"`
	JobID      string `json:"job_id"`
	Ticker     string `json:"ticker"`
	Status     string `json:"status"`
	ReportKind string `json:"report_kind,omitempty"`
	Items      int    `json:"discussion_items"`
	Articles   int    `json:"news_articles"`
	Headline   string `json:"headline,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Logger writes entries under a base directory. The zero-value dir
// falls back to FEWKNOW_LOG_DIR or "logs".
type Logger struct {
	dir string
}

// New creates a report logger
func New(dir string) *Logger {
	return &Logger{dir: dir}
}

func (l *Logger) root() string {
	if l.dir != "" {
		return l.dir
	}
	if v := os.Getenv("FEWKNOW_LOG_DIR"); v != "" {
		return v
	}
	return "logs"
}

func (l *Logger) dailyFilepath(t time.Time) string {
	return filepath.Join(l.root(), t.UTC().Format("2006-01-02")+".jsonl")
}

// Append records a terminal job result in the current day's file.
func (l *Logger) Append(res *types.AnalysisResult) error {
	mu.Lock()
	defer mu.Unlock()

	now := time.Now().UTC()
	e := Entry{
		Time:       now.Format("2006-01-02 15:04:05"),
		JobID:      res.JobID,
		Ticker:     res.Ticker,
		Status:     string(res.Status),
		ReportKind: string(res.Kind),
		Items:      len(res.DiscussionItems),
		Articles:   len(res.NewsArticles),
		Error:      res.Error,
	}
	if res.InsightReport != nil {
		e.Headline = res.InsightReport.Headline
	}

	p := l.dailyFilepath(now)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	b, _ := json.Marshal(e)
	_, err = fmt.Fprintln(f, string(b))
	return err
}

// CompressOlder gzips log files older than retentionDays and removes
// the originals. Zero or negative retention disables compression.
func (l *Logger) CompressOlder(retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	return filepath.WalkDir(l.root(), func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(p) != ".jsonl" {
			return nil
		}
		info, er := os.Stat(p)
		if er != nil || !info.ModTime().Before(cutoff) {
			return nil
		}

		gz := p + ".gz"
		if _, e2 := os.Stat(gz); e2 == nil {
			// already compressed on a previous pass
			return os.Remove(p)
		}

		in, e3 := os.Open(p)
		if e3 != nil {
			return nil
		}
		defer in.Close()

		out, e4 := os.OpenFile(gz, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if e4 != nil {
			return nil
		}
		gw := gzip.NewWriter(out)
		if _, e5 := io.Copy(gw, in); e5 != nil {
			_ = gw.Close()
			_ = out.Close()
			return nil
		}
		_ = gw.Close()
		_ = out.Close()
		return os.Remove(p)
	})
}
