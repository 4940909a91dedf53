package verify

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/swantron/minic/internal/compiler"
	"github.com/swantron/minic/internal/diag"
	"github.com/swantron/minic/internal/fixture"
)

// Extension is the suffix of fixture files collected from directories
const Extension = ".c"

// Result contains the results of verifying a set of fixtures
type Result struct {
	// TotalFiles is the number of fixtures verified
	TotalFiles int
	// PassedFiles is the number of fixtures whose diagnostics matched exactly
	PassedFiles int
	// TotalExpected is the number of annotated lines across all fixtures
	TotalExpected int
	// MatchedLines is the number of annotated lines that got a matching diagnostic
	MatchedLines int
	// MissingLines is the number of annotated lines without a matching diagnostic
	MissingLines int
	// UnexpectedLines is the number of diagnostic lines nobody annotated
	UnexpectedLines int
	// MatchPercentage is the percentage of annotated lines that matched
	MatchPercentage float64
	// FileResults contains per-file results keyed by path
	FileResults map[string]*FileResult
}

// FileResult contains verification results for a single fixture
type FileResult struct {
	FilePath string
	// Expected lists the annotated line numbers
	Expected []int
	// Reported lists the lines carrying at least one diagnostic
	Reported []int
	Matched  []int
	// Missing lists annotated lines with no diagnostic, or none matching the pattern
	Missing []int
	// Unexpected lists diagnostic lines without an annotation
	Unexpected []int
	// Failures explains each missing pattern match
	Failures    []string
	Diagnostics []diag.Diagnostic
}

// Passed reports whether the file's diagnostics matched its annotations exactly
func (f *FileResult) Passed() bool {
	return len(f.Missing) == 0 && len(f.Unexpected) == 0
}

// Passed reports whether every fixture passed
func (r *Result) Passed() bool {
	return r.PassedFiles == r.TotalFiles
}

// Paths returns the verified file paths in sorted order
func (r *Result) Paths() []string {
	paths := make([]string, 0, len(r.FileResults))
	for p := range r.FileResults {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func (r *Result) add(f *FileResult) {
	r.FileResults[f.FilePath] = f
	r.TotalFiles++
	if f.Passed() {
		r.PassedFiles++
	}
	r.TotalExpected += len(f.Expected)
	r.MatchedLines += len(f.Matched)
	r.MissingLines += len(f.Missing)
	r.UnexpectedLines += len(f.Unexpected)
	if r.TotalExpected > 0 {
		r.MatchPercentage = float64(r.MatchedLines) / float64(r.TotalExpected) * 100
	}
}

// Check correlates a fixture's annotations with the diagnostics reported for it
func Check(f *fixture.File, diags []diag.Diagnostic) *FileResult {
	result := &FileResult{
		FilePath:    f.Path,
		Expected:    f.Lines(),
		Reported:    diag.Lines(diags),
		Matched:     make([]int, 0),
		Missing:     make([]int, 0),
		Unexpected:  make([]int, 0),
		Diagnostics: diags,
	}

	byLine := make(map[int][]diag.Diagnostic)
	for _, d := range diags {
		byLine[d.Pos.Line] = append(byLine[d.Pos.Line], d)
	}

	annotated := make(map[int]bool)
	for _, exp := range f.Expectations {
		annotated[exp.Line] = true
		onLine := byLine[exp.Line]
		if len(onLine) == 0 {
			result.Missing = append(result.Missing, exp.Line)
			continue
		}
		matched := false
		for _, d := range onLine {
			if exp.Matches(d) {
				matched = true
				break
			}
		}
		if !matched {
			result.Missing = append(result.Missing, exp.Line)
			result.Failures = append(result.Failures,
				fmt.Sprintf("line %d: no diagnostic matches %q; got %q", exp.Line, exp.Pattern, onLine[0].Message))
			continue
		}
		result.Matched = append(result.Matched, exp.Line)
	}

	for _, line := range result.Reported {
		if !annotated[line] {
			result.Unexpected = append(result.Unexpected, line)
		}
	}
	return result
}

// Verifier compiles fixtures and checks them against their annotations
type Verifier struct {
	// Workers bounds concurrent files; zero or less means one per CPU
	Workers int
	Options compiler.Options
}

// VerifyFiles verifies every fixture under paths with the default compiler
func VerifyFiles(ctx context.Context, paths []string, workers int) (*Result, error) {
	v := &Verifier{Workers: workers}
	return v.Run(ctx, paths)
}

// Run verifies fixtures concurrently. Unreadable files are reported together
// in the returned error while the rest are still verified.
func (v *Verifier) Run(ctx context.Context, paths []string) (*Result, error) {
	files, err := Collect(paths)
	if err != nil {
		return nil, err
	}
	logger := v.Options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	result := &Result{FileResults: make(map[string]*FileResult)}
	var (
		mu   sync.Mutex
		errs error
	)

	g, gctx := errgroup.WithContext(ctx)
	if v.Workers > 0 {
		g.SetLimit(v.Workers)
	}
	for _, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fr, err := v.file(path)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.Warn("fixture failed", zap.String("file", path), zap.Error(err))
				errs = multierr.Append(errs, err)
				return nil
			}
			logger.Debug("fixture verified",
				zap.String("file", path),
				zap.Bool("passed", fr.Passed()),
				zap.Int("expected", len(fr.Expected)))
			result.add(fr)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, errs
}

func (v *Verifier) file(path string) (*FileResult, error) {
	f, err := fixture.Load(path)
	if err != nil {
		return nil, err
	}
	res, err := compiler.Compile(path, f.Source, v.Options)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return Check(f, res.Diagnostics), nil
}

// Collect expands directories into the fixture files they contain
func Collect(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", p, err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && filepath.Ext(path) == Extension {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", p, err)
		}
	}
	return files, nil
}
