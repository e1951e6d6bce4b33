package audit

import (
	"encoding/csv"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/multierr"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileOptions locates the text log and the CSV activity file.
type FileOptions struct {
	LogFile    string
	RecordFile string
	MaxSizeMB  int
	MaxBackups int
}

// FileSink appends the text log through a rotating writer and rewrites the
// CSV activity file for each run.
type FileSink struct {
	mu     sync.Mutex
	text   *lumberjack.Logger
	file   *os.File
	writer *csv.Writer
}

func NewFileSink(opts FileOptions) (*FileSink, error) {
	f, err := os.Create(opts.RecordFile)
	if err != nil {
		return nil, fmt.Errorf("create record file: %w", err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(Header); err != nil {
		f.Close()
		return nil, fmt.Errorf("write record header: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return nil, fmt.Errorf("flush record header: %w", err)
	}
	return &FileSink{
		text: &lumberjack.Logger{
			Filename:   opts.LogFile,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
		},
		file:   f,
		writer: w,
	}, nil
}

func (s *FileSink) Log(ts time.Time, msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprintf(s.text, "%s, %s\n", ts.Format(TimeLayout), msg); err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

func (s *FileSink) Record(r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writer.Write(r.Fields()); err != nil {
		return fmt.Errorf("write activity record: %w", err)
	}
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		return fmt.Errorf("flush activity record: %w", err)
	}
	return nil
}

func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writer.Flush()
	return multierr.Combine(s.writer.Error(), s.file.Close(), s.text.Close())
}
