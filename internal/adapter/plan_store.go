// Package adapter contains infrastructure adapters for the vouch CLI.
package adapter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	m "gooze.dev/pkg/vouch/internal/model"
)

const (
	recursiveSuffix  = "/..."
	planGlob         = "*.plan.{yaml,yml}"
	recursivePlanDir = "**/"
)

// ErrInvalidStep is returned for a plan step that does not set exactly one action.
var ErrInvalidStep = errors.New("step must set exactly one of expect, sleep, fail or log")

// PlanStore abstracts discovery and decoding of plan files so the workflow
// can be tested without touching the disk.
type PlanStore interface {
	// Collect expands paths into plan files. A directory contributes its
	// *.plan.yaml files, "dir/..." descends recursively and any other
	// argument containing glob metacharacters is matched with doublestar.
	// Files whose path matches one of the exclude regexes are dropped.
	Collect(ctx context.Context, paths []m.Path, exclude []string) ([]m.Path, error)

	// Load reads, decodes and validates the given plan files, preserving order.
	Load(ctx context.Context, paths []m.Path) ([]m.PlanFile, error)
}

// LocalPlanStore reads plans from the local filesystem.
type LocalPlanStore struct {
	validate *validator.Validate
}

// NewLocalPlanStore constructs a LocalPlanStore.
func NewLocalPlanStore() *LocalPlanStore {
	return &LocalPlanStore{
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Collect implements PlanStore.
func (s *LocalPlanStore) Collect(ctx context.Context, paths []m.Path, exclude []string) ([]m.Path, error) {
	if len(paths) == 0 {
		paths = []m.Path{"." + recursiveSuffix}
	}

	filters, err := compileExcludes(exclude)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}

	var found []m.Path

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		matches, err := s.expand(string(path))
		if err != nil {
			slog.Error("Failed to expand plan path", "path", path, "error", err)
			return nil, fmt.Errorf("expand %s: %w", path, err)
		}

		for _, match := range matches {
			if seen[match] || excluded(match, filters) {
				continue
			}

			seen[match] = true
			found = append(found, m.Path(match))
		}
	}

	return found, nil
}

func (s *LocalPlanStore) expand(arg string) ([]string, error) {
	if root, ok := strings.CutSuffix(filepath.ToSlash(arg), recursiveSuffix); ok {
		if root == "" {
			root = "."
		}

		return globDir(filepath.FromSlash(root), recursivePlanDir+planGlob)
	}

	info, err := os.Stat(arg)

	switch {
	case err == nil && info.IsDir():
		return globDir(arg, planGlob)
	case err == nil:
		return []string{filepath.Clean(arg)}, nil
	case errors.Is(err, fs.ErrNotExist) && hasMeta(arg):
		matches, globErr := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
		if globErr != nil {
			return nil, globErr
		}

		sort.Strings(matches)

		return matches, nil
	}

	return nil, err
}

func globDir(root, pattern string) ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(root), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(matches))
	for _, match := range matches {
		out = append(out, filepath.Join(root, filepath.FromSlash(match)))
	}

	sort.Strings(out)

	return out, nil
}

func hasMeta(path string) bool {
	return strings.ContainsAny(path, "*?[{")
}

func compileExcludes(patterns []string) ([]*regexp.Regexp, error) {
	filters := make([]*regexp.Regexp, 0, len(patterns))

	for _, pattern := range patterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}

		filters = append(filters, re)
	}

	return filters, nil
}

func excluded(path string, filters []*regexp.Regexp) bool {
	slashed := filepath.ToSlash(path)

	for _, re := range filters {
		if re.MatchString(slashed) || re.MatchString(filepath.Base(path)) {
			return true
		}
	}

	return false
}

// Load implements PlanStore.
func (s *LocalPlanStore) Load(ctx context.Context, paths []m.Path) ([]m.PlanFile, error) {
	plans := make([]m.PlanFile, len(paths))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(runtime.NumCPU())

	for i, path := range paths {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}

			plan, err := s.loadOne(path)
			if err != nil {
				return err
			}

			plans[i] = m.PlanFile{Path: path, Plan: plan}

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	return plans, nil
}

func (s *LocalPlanStore) loadOne(path m.Path) (m.Plan, error) {
	// #nosec G304 - plan paths are supplied by the user on purpose
	content, err := os.ReadFile(string(path))
	if err != nil {
		slog.Error("Failed to read plan", "path", path, "error", err)
		return m.Plan{}, fmt.Errorf("read plan %s: %w", path, err)
	}

	var plan m.Plan

	decoder := yaml.NewDecoder(bytes.NewReader(content))
	decoder.KnownFields(true)

	if err := decoder.Decode(&plan); err != nil {
		slog.Error("Failed to decode plan", "path", path, "error", err)
		return m.Plan{}, fmt.Errorf("decode plan %s: %w", path, err)
	}

	if err := s.validate.Struct(plan); err != nil {
		return m.Plan{}, fmt.Errorf("invalid plan %s: %w", path, err)
	}

	if err := validateSteps(plan.Suites); err != nil {
		return m.Plan{}, fmt.Errorf("invalid plan %s: %w", path, err)
	}

	return plan, nil
}

func validateSteps(suites []m.Suite) error {
	for _, s := range suites {
		lists := [][]m.Step{s.BeforeAll, s.AfterAll, s.BeforeEach, s.AfterEach}
		for _, t := range s.Tests {
			lists = append(lists, t.Steps)
		}

		for _, steps := range lists {
			for i, step := range steps {
				if actions(step) != 1 {
					return fmt.Errorf("suite %q step %d: %w", s.Name, i+1, ErrInvalidStep)
				}
			}
		}

		if err := validateSteps(s.Suites); err != nil {
			return err
		}
	}

	return nil
}

func actions(step m.Step) int {
	n := 0

	if step.Expect != nil {
		n++
	}

	if step.Sleep > 0 {
		n++
	}

	if step.Fail != "" {
		n++
	}

	if step.Log != "" {
		n++
	}

	return n
}
