// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package dataset

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/poiesic/animerec/core"
)

// Raw dataset column names.
const (
	ColumnID       = "MAL_ID"
	ColumnTitle    = "Name"
	ColumnSynopsis = "sypnopsis"
	ColumnGenres   = "Genres"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// rawRow is one row of the source dataset. Unknown columns are ignored.
type rawRow struct {
	ID       string `csv:"MAL_ID"`
	Title    string `csv:"Name"`
	Genres   string `csv:"Genres"`
	Synopsis string `csv:"sypnopsis"`
}

// processedRow is one row of the processed CSV.
type processedRow struct {
	ID       string `csv:"id"`
	Title    string `csv:"title"`
	Genres   string `csv:"genres"`
	Synopsis string `csv:"synopsis"`
	Content  string `csv:"content"`
}

// Loader reads the raw dataset and writes the processed CSV.
type Loader struct {
	logger *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) error {
		if logger == nil {
			logger = slog.Default()
		}
		l.logger = logger
		return nil
	}
}

// NewLoader creates a new Loader.
func NewLoader(opts ...Option) (*Loader, error) {
	l := &Loader{
		logger: slog.Default().With("component", "dataset"),
	}
	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// LoadAndProcess reads inputPath, filters and combines its rows, and writes the
// processed CSV to outputPath. It returns outputPath on success.
// A header-only input produces a header-only output.
func (l *Loader) LoadAndProcess(ctx context.Context, inputPath, outputPath string) (string, error) {
	const op = "load and process"

	in, err := os.Open(inputPath)
	if err != nil {
		l.logger.Error("error opening raw dataset", "path", inputPath, "err", err)
		return "", core.Wrap(op, core.KindIO, err)
	}
	defer in.Close()

	items, skipped, err := l.process(ctx, in)
	if err != nil {
		l.logger.Error("error processing raw dataset", "path", inputPath, "err", err)
		return "", core.Wrap(op, kindFor(err), err)
	}

	if err := writeProcessed(outputPath, items); err != nil {
		l.logger.Error("error writing processed dataset", "path", outputPath, "err", err)
		return "", core.Wrap(op, core.KindIO, err)
	}

	l.logger.Info("processed dataset", "input", inputPath, "output", outputPath,
		"items", len(items), "skipped", skipped)
	return outputPath, nil
}

// Process filters and combines raw rows read from r without touching the filesystem.
func (l *Loader) Process(ctx context.Context, r io.Reader) ([]*core.Item, error) {
	items, _, err := l.process(ctx, r)
	if err != nil {
		return nil, core.Wrap("process", kindFor(err), err)
	}
	return items, nil
}

func (l *Loader) process(ctx context.Context, r io.Reader) ([]*core.Item, int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, err
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	header, err := readHeader(data)
	if err != nil {
		return nil, 0, err
	}
	for _, required := range []string{ColumnTitle, ColumnSynopsis} {
		if !slices.Contains(header, required) {
			return nil, 0, fmt.Errorf("%w: %s", ErrMissingColumn, required)
		}
	}

	var rows []*rawRow
	if err := gocsv.UnmarshalBytes(data, &rows); err != nil {
		if !errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return nil, 0, fmt.Errorf("%w: %w", ErrMalformedCSV, err)
		}
	}

	items := make([]*core.Item, 0, len(rows))
	skipped := 0
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}

		item := combine(row)
		if err := core.ValidateItem(item); err != nil || item.Synopsis == "" {
			l.logger.Debug("skipping row", "row", i+1, "title", row.Title)
			skipped++
			continue
		}
		items = append(items, item)
	}
	return items, skipped, nil
}

// ReadProcessed reads a processed CSV back into items.
func (l *Loader) ReadProcessed(ctx context.Context, path string) ([]*core.Item, error) {
	const op = "read processed"

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, core.Wrap(op, core.KindIO, err)
	}

	var rows []*processedRow
	if err := gocsv.UnmarshalBytes(data, &rows); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return nil, core.Wrap(op, core.KindData, fmt.Errorf("%w: %s has no header", ErrMalformedCSV, path))
		}
		return nil, core.Wrap(op, core.KindData, fmt.Errorf("%w: %w", ErrMalformedCSV, err))
	}

	items := make([]*core.Item, 0, len(rows))
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		item := &core.Item{
			Id:       row.ID,
			Title:    row.Title,
			Genres:   row.Genres,
			Synopsis: row.Synopsis,
			Content:  row.Content,
		}
		if err := core.ValidateItem(item); err != nil {
			return nil, core.Wrap(op, core.KindData, fmt.Errorf("row %d: %w", i+1, err))
		}
		items = append(items, item)
	}
	return items, nil
}

// combine normalizes a raw row into an Item.
func combine(row *rawRow) *core.Item {
	title := normalize(row.Title)
	synopsis := normalize(row.Synopsis)
	genres := normalize(row.Genres)

	content := "Title: " + title + " Overview: " + synopsis
	if genres != "" {
		content += " Genres: " + genres
	}

	id := strings.TrimSpace(row.ID)
	if id == "" {
		id = core.IDFromContent(content).String()
	}

	return &core.Item{
		Id:       id,
		Title:    title,
		Genres:   genres,
		Synopsis: synopsis,
		Content:  content,
	}
}

// normalize collapses runs of whitespace and trims the ends.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func writeProcessed(path string, items []*core.Item) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	out, err := os.Create(path)
	if err != nil {
		return err
	}

	rows := make([]*processedRow, 0, len(items))
	for _, item := range items {
		rows = append(rows, &processedRow{
			ID:       item.Id,
			Title:    item.Title,
			Genres:   item.Genres,
			Synopsis: item.Synopsis,
			Content:  item.Content,
		})
	}

	if err := gocsv.MarshalFile(&rows, out); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// readHeader returns the first record of data, or nil for empty input.
func readHeader(data []byte) ([]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedCSV, err)
	}
	return header, nil
}

// kindFor maps processing errors onto error kinds.
func kindFor(err error) core.ErrorKind {
	switch {
	case errors.Is(err, ErrMissingColumn), errors.Is(err, ErrMalformedCSV):
		return core.KindData
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return core.KindUnknown
	default:
		return core.KindIO
	}
}
