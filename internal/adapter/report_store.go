package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	m "gooze.dev/pkg/vouch/internal/model"
	"gooze.dev/pkg/vouch/pkg/suite"
)

const (
	// ReportFileName is the report written into a reports directory.
	ReportFileName = "report.yaml"
	// ShardDirPrefix prefixes the per-shard report directories.
	ShardDirPrefix = "shard_"
)

// ReportStore persists run reports. Files ending in .json are JSON encoded,
// anything else is YAML.
type ReportStore interface {
	SaveReport(path m.Path, report *suite.AggregateReport) error
	LoadReport(path m.Path) (*suite.AggregateReport, error)
	// LoadShards loads every shard_*/report.yaml below dir, ordered by
	// directory name.
	LoadShards(ctx context.Context, dir m.Path) ([]*suite.AggregateReport, error)
}

// LocalReportStore stores reports on the local filesystem.
type LocalReportStore struct{}

// NewReportStore constructs a LocalReportStore.
func NewReportStore() *LocalReportStore {
	return &LocalReportStore{}
}

// SaveReport implements ReportStore.
func (s *LocalReportStore) SaveReport(path m.Path, report *suite.AggregateReport) error {
	target := string(path)

	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		slog.Error("Failed to create reports directory", "path", path, "error", err)
		return fmt.Errorf("create reports directory: %w", err)
	}

	var (
		content []byte
		err     error
	)

	if isJSON(target) {
		content, err = json.MarshalIndent(report, "", "  ")
	} else {
		content, err = yaml.Marshal(report)
	}

	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	if err := os.WriteFile(target, content, 0o600); err != nil {
		slog.Error("Failed to write report", "path", path, "error", err)
		return fmt.Errorf("write report: %w", err)
	}

	slog.Debug("saved report", "path", path, "run_id", report.RunID)

	return nil
}

// LoadReport implements ReportStore.
func (s *LocalReportStore) LoadReport(path m.Path) (*suite.AggregateReport, error) {
	// #nosec G304 - report path comes from configuration
	content, err := os.ReadFile(string(path))
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}

	report := &suite.AggregateReport{}

	if isJSON(string(path)) {
		err = json.Unmarshal(content, report)
	} else {
		err = yaml.Unmarshal(content, report)
	}

	if err != nil {
		slog.Error("Failed to decode report", "path", path, "error", err)
		return nil, fmt.Errorf("decode report %s: %w", path, err)
	}

	return report, nil
}

// LoadShards implements ReportStore.
func (s *LocalReportStore) LoadShards(ctx context.Context, dir m.Path) ([]*suite.AggregateReport, error) {
	entries, err := os.ReadDir(string(dir))
	if err != nil {
		return nil, fmt.Errorf("read reports directory: %w", err)
	}

	var shards []string

	for _, entry := range entries {
		if entry.IsDir() && strings.HasPrefix(entry.Name(), ShardDirPrefix) {
			shards = append(shards, filepath.Join(string(dir), entry.Name(), ReportFileName))
		}
	}

	sort.Strings(shards)

	reports := make([]*suite.AggregateReport, len(shards))

	group, groupCtx := errgroup.WithContext(ctx)

	for i, shard := range shards {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}

			report, err := s.LoadReport(m.Path(shard))
			if err != nil {
				return err
			}

			reports[i] = report

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	return reports, nil
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}
