package store

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"

	"github.com/ayusman/signbridge/internal/collect"
	"github.com/ayusman/signbridge/internal/features"
)

// CSV stores samples as headerless rows of label followed by the 126
// feature values, the layout the training script reads.
type CSV struct {
	path string
	mu   sync.Mutex
}

// NewCSV returns a CSV dataset at path. The file is created on first append.
func NewCSV(path string) (*CSV, error) {
	if path == "" {
		return nil, errors.New("csv dataset path is required")
	}
	return &CSV{path: path}, nil
}

// Append writes samples in one write call. If the write fails the file is
// truncated back to its previous length.
func (c *CSV) Append(_ string, samples []collect.LabeledSample) error {
	if len(samples) == 0 {
		return nil
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	row := make([]string, 1+features.Size)
	for _, s := range samples {
		row[0] = strconv.Itoa(s.Label)
		for i, f := range s.Features {
			row[i+1] = strconv.FormatFloat(f, 'g', -1, 64)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	f, err := os.OpenFile(c.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat dataset: %w", err)
	}

	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Truncate(info.Size())
		return fmt.Errorf("write dataset: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Truncate(info.Size())
		return fmt.Errorf("sync dataset: %w", err)
	}

	return nil
}

// Counts returns the number of stored rows per label. A missing file has
// no samples.
func (c *CSV) Counts() (map[int]int, error) {
	counts := make(map[int]int)
	err := c.scan(func(label int, _ []string) error {
		counts[label]++
		return nil
	})
	return counts, err
}

// All returns every stored sample in file order.
func (c *CSV) All() ([]collect.LabeledSample, error) {
	var samples []collect.LabeledSample
	err := c.scan(func(label int, rest []string) error {
		values := make([]float64, len(rest))
		for i, field := range rest {
			f, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return fmt.Errorf("parse value %d: %w", i, err)
			}
			values[i] = f
		}
		v, err := features.FromSlice(values)
		if err != nil {
			return err
		}
		samples = append(samples, collect.LabeledSample{Label: label, Features: v})
		return nil
	})
	return samples, err
}

// Close is a no-op; the file is opened per append.
func (c *CSV) Close() error {
	return nil
}

func (c *CSV) scan(fn func(label int, rest []string) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, err := os.Open(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.ReuseRecord = true

	for line := 1; ; line++ {
		record, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read dataset: %w", err)
		}
		if len(record) == 0 || (len(record) == 1 && record[0] == "") {
			continue
		}
		label, err := strconv.Atoi(record[0])
		if err != nil {
			return fmt.Errorf("line %d: parse label: %w", line, err)
		}
		if err := fn(label, record[1:]); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
	}
}
