// Package loader populates the spend store from the configured source
// exports on disk. It is used at process start and again on every reset.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"cloudspend/internal/core"
	"cloudspend/internal/ingest"
)

// Source is one configured export file. Provider is the known provider of
// the file; it bypasses filename detection during ingestion.
type Source struct {
	Name     string
	Provider core.Provider
}

// DefaultSources lists the billing exports the store is seeded from.
func DefaultSources() []Source {
	return []Source{
		{Name: "aws_line_items_12mo.csv", Provider: core.AWS},
		{Name: "gcp_billing_12mo.csv", Provider: core.GCP},
	}
}

// ParseSources parses a comma separated "file:provider" list, e.g.
// "aws.csv:AWS,gcp.csv:GCP". The provider part is optional; without it the
// file goes through name-based detection during ingestion.
func ParseSources(spec string) ([]Source, error) {
	var sources []Source
	for _, entry := range strings.Split(spec, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, rawProvider, hasProvider := strings.Cut(entry, ":")
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("source entry %q has no file name", entry)
		}
		src := Source{Name: name}
		if hasProvider {
			provider, ok := core.NormalizeProvider(rawProvider)
			if !ok {
				return nil, fmt.Errorf("source entry %q has unknown provider %q", entry, rawProvider)
			}
			src.Provider = provider
		}
		sources = append(sources, src)
	}
	if len(sources) == 0 {
		return nil, errors.New("source list is empty")
	}
	return sources, nil
}

type Loader struct {
	dir     string
	sources []Source
	logger  *slog.Logger
}

func New(dir string, sources []Source, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{dir: dir, sources: sources, logger: logger}
}

// Load ingests every configured source and returns the combined record set
// in source order. A missing or unreadable source contributes zero records
// and never aborts the other sources, so Load is idempotent with respect to
// whatever is on disk.
func (l *Loader) Load(ctx context.Context) ([]core.SpendRecord, error) {
	results := make([][]core.SpendRecord, len(l.sources))

	g, ctx := errgroup.WithContext(ctx)
	for i, src := range l.sources {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = l.loadOne(ctx, src)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var combined []core.SpendRecord
	for _, recs := range results {
		combined = append(combined, recs...)
	}
	l.logger.InfoContext(ctx, "source load complete", "sources", len(l.sources), "records", len(combined))
	return combined, nil
}

func (l *Loader) loadOne(ctx context.Context, src Source) []core.SpendRecord {
	path := filepath.Join(l.dir, src.Name)
	buf, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			l.logger.WarnContext(ctx, "source file not found", "file", src.Name, "dir", l.dir)
		} else {
			l.logger.ErrorContext(ctx, "source file unreadable", "file", src.Name, "error", err)
		}
		return nil
	}

	res, err := ingest.ParseSpreadsheet(buf, src.Name, ingest.Options{DefaultProvider: src.Provider})
	if err != nil {
		l.logger.ErrorContext(ctx, "source file unparseable", "file", src.Name, "error", err)
		return nil
	}
	l.logger.InfoContext(ctx, "loaded source file",
		"file", src.Name,
		"records", len(res.Records),
		"rejected", res.Rejected)
	return res.Records
}
