// Package scaffold materializes received problems on disk: a directory per
// contest, a templated solution file and one pair of files per sample test.
package scaffold

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ccfetch/ccfetch/problem"
)

// defaultTemplate is used when no template file is configured.
const defaultTemplate = `#include <bits/stdc++.h>
using namespace std;

int main() {
    ios_base::sync_with_stdio(false);
    cin.tie(nullptr);

    return 0;
}
`

// Config controls where and how problems are materialized.
type Config struct {
	// BaseDir is the root under which contest directories are created.
	// Defaults to the current directory.
	BaseDir string

	// TemplatePath points at the solution template to copy. When empty, a
	// built-in template is used.
	TemplatePath string

	// Author, when set, is added to the generated source file header.
	Author string

	// Editor, when set, is the command used by OpenEditor to open a
	// contest directory.
	Editor string
}

// Result is the explicit outcome of materialization: the paths that were
// created and the names of problems that could not be made. A failed
// problem never aborts the remaining ones.
type Result struct {
	Created []string
	Failed  []string
}

// Merge folds another result into r.
func (r *Result) Merge(other Result) {
	r.Created = append(r.Created, other.Created...)
	r.Failed = append(r.Failed, other.Failed...)
}

// Scaffolder writes problem scaffolds under a base directory.
type Scaffolder struct {
	cfg    Config
	logger *zap.Logger
	now    func() time.Time
}

// New creates a Scaffolder. A nil logger discards logging.
func New(cfg Config, logger *zap.Logger) *Scaffolder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BaseDir == "" {
		cfg.BaseDir = "."
	}
	return &Scaffolder{cfg: cfg, logger: logger, now: time.Now}
}

// Materialize writes the scaffold for one problem, naming the source file
// after the problem id ("A.cc").
func (s *Scaffolder) Materialize(p problem.Problem) Result {
	name := p.ID()
	if name == "" {
		name = "sol"
	}
	return s.materialize(p, name+".cc")
}

// MaterializeManual writes the scaffold with the fixed source name "sol.cc",
// used when the caller supplied problem names on the command line.
func (s *Scaffolder) MaterializeManual(p problem.Problem) Result {
	return s.materialize(p, "sol.cc")
}

func (s *Scaffolder) materialize(p problem.Problem, sourceName string) Result {
	var res Result
	fail := func(err error) Result {
		s.logger.Error("materialize failed", zap.String("problem", p.Name), zap.Error(err))
		res.Failed = append(res.Failed, p.Name)
		return res
	}

	dir := filepath.Join(s.cfg.BaseDir, p.Dir())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fail(err)
	}

	src := filepath.Join(dir, sourceName)
	if _, err := os.Stat(src); os.IsNotExist(err) {
		tmpl, err := s.template()
		if err != nil {
			return fail(err)
		}
		if err := os.WriteFile(src, []byte(s.header(p)+tmpl), 0o644); err != nil {
			return fail(err)
		}
		res.Created = append(res.Created, src)
	}

	id := p.ID()
	if id == "" {
		id = "sol"
	}
	for i, tc := range p.Tests {
		in := filepath.Join(dir, fmt.Sprintf("%s-%d.in", id, i+1))
		created, err := writeIfAbsent(in, tc.Input)
		if err != nil {
			return fail(err)
		}
		if created {
			res.Created = append(res.Created, in)
		}

		out := filepath.Join(dir, fmt.Sprintf("%s-%d.out", id, i+1))
		created, err = writeIfAbsent(out, tc.Output)
		if err != nil {
			return fail(err)
		}
		if created {
			res.Created = append(res.Created, out)
		}
	}

	s.logger.Info("problem materialized",
		zap.String("problem", p.Name),
		zap.String("dir", dir),
		zap.Int("files", len(res.Created)))
	return res
}

// writeIfAbsent writes content to path unless the file already exists.
// Existing files are never overwritten.
func writeIfAbsent(path, content string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Scaffolder) template() (string, error) {
	if s.cfg.TemplatePath == "" {
		return defaultTemplate, nil
	}
	b, err := os.ReadFile(s.cfg.TemplatePath)
	if err != nil {
		return "", fmt.Errorf("read template: %w", err)
	}
	return string(b), nil
}

// header generates the comment block prepended to the solution file.
func (s *Scaffolder) header(p problem.Problem) string {
	var b strings.Builder
	if s.cfg.Author != "" {
		fmt.Fprintf(&b, "// author: %s\n", s.cfg.Author)
	}
	fmt.Fprintf(&b, "// created on: %s\n", s.now().Format("02/01/2006 15:04:05"))
	fmt.Fprintf(&b, "//\n")
	fmt.Fprintf(&b, "// Problem: %s\n", p.Name)
	fmt.Fprintf(&b, "// URL: %s\n", p.URL)
	fmt.Fprintf(&b, "// Time Limit: %d ms\n", p.TimeLimit)
	fmt.Fprintf(&b, "// Memory Limit: %d MB\n", p.MemoryLimit)
	fmt.Fprintf(&b, "\n")
	return b.String()
}

// OpenEditor opens the contest directory in the configured editor, if any.
// The editor is started in the background; a missing editor is an error the
// caller may treat as a warning.
func (s *Scaffolder) OpenEditor(dir string) error {
	if s.cfg.Editor == "" {
		return nil
	}
	parts := strings.Fields(s.cfg.Editor)
	cmd := exec.Command(parts[0], append(parts[1:], dir)...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("open editor %q: %w", s.cfg.Editor, err)
	}
	// Detach; the editor outlives this process.
	return cmd.Process.Release()
}
