// Package includeresolver maps an #include spelling to the canonical path
// the host C compiler would open, by driving that compiler with its
// include-hierarchy-printing flag against a synthesized stub file.
// Grounded in original_source/src/IncludeResolver.hpp.
package includeresolver

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/hbollon/go-edlib"
	"github.com/hayroll-dev/hayroll/internal/herrors"
	"github.com/hayroll-dev/hayroll/internal/logging"
)

// Resolver drives ccExePath ("cc", "gcc", "clang", ...) to resolve include
// spellings against a fixed set of system include paths.
type Resolver struct {
	ccExePath    string
	includePaths []string
	log          *logging.Logger
}

// New canonicalizes includePaths and returns a Resolver bound to ccExePath.
func New(ccExePath string, includePaths []string, log *logging.Logger) (*Resolver, error) {
	canon := make([]string, 0, len(includePaths))
	for _, p := range includePaths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("includeresolver: %w", err)
		}
		canon = append(canon, abs)
	}
	if log == nil {
		log = logging.Default()
	}
	return &Resolver{ccExePath: ccExePath, includePaths: canon, log: log.With("includeresolver")}, nil
}

// ResolveSystemInclude resolves a <spelling> include, never searching the
// parent directory chain.
func (r *Resolver) ResolveSystemInclude(ctx context.Context, spelling string) (string, error) {
	return r.resolveInclude(ctx, true, spelling, nil)
}

// ResolveUserInclude resolves a "spelling" include, searching parentPaths
// (leaf-first, i.e. the including file's directory first) ahead of the
// resolver's configured system include paths.
func (r *Resolver) ResolveUserInclude(ctx context.Context, spelling string, parentPaths []string) (string, error) {
	return r.resolveInclude(ctx, false, spelling, parentPaths)
}

func (r *Resolver) resolveInclude(ctx context.Context, system bool, spelling string, parentPaths []string) (string, error) {
	if strings.HasPrefix(spelling, "<") {
		// Pseudo-files such as <built-in> or <command-line>.
		return spelling, nil
	}
	if filepath.IsAbs(spelling) {
		abs, err := filepath.Abs(spelling)
		if err != nil {
			return "", fmt.Errorf("includeresolver: %w", err)
		}
		return abs, nil
	}

	tmpDir, err := os.MkdirTemp("", "hayroll-includeresolver-*")
	if err != nil {
		return "", fmt.Errorf("includeresolver: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	stubPath := filepath.Join(tmpDir, "stub.c")
	var stub string
	if system {
		stub = fmt.Sprintf("#include <%s>\n", spelling)
	} else {
		stub = fmt.Sprintf("#include \"%s\"\n", spelling)
	}
	if err := os.WriteFile(stubPath, []byte(stub), 0o644); err != nil {
		return "", fmt.Errorf("includeresolver: %w", err)
	}

	args := []string{"-H", "-fsyntax-only"}
	if !system {
		for _, p := range parentPaths {
			args = append(args, "-I"+p)
		}
	}
	for _, p := range r.includePaths {
		args = append(args, "-I"+p)
	}
	args = append(args, stubPath)

	r.log.Debugf("running %s %s", r.ccExePath, strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, r.ccExePath, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	_ = cmd.Run() // -fsyntax-only on a stub with an unresolved include exits nonzero; the hierarchy is still on stderr.

	path := parseStubIncludeHierarchy(stderr.String())
	if path == "" {
		suggestion := r.suggest(spelling, parentPaths)
		return "", &herrors.UnresolvedIncludeError{
			Spelling:  spelling,
			System:    system,
			Suggestion: suggestion,
		}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("includeresolver: %w", err)
	}
	return abs, nil
}

// parseStubIncludeHierarchy extracts the first top-level ("." prefixed)
// entry from a "cc -H" stderr dump — the file the stub's own #include
// resolved to.
func parseStubIncludeHierarchy(hierarchy string) string {
	scanner := bufio.NewScanner(strings.NewReader(hierarchy))
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, ". ") {
			continue
		}
		return strings.TrimSpace(strings.TrimPrefix(line, ". "))
	}
	return ""
}

// suggest proposes the closest filename to spelling among the candidate
// search directories, for the UnresolvedIncludeError's "did you mean" hint.
func (r *Resolver) suggest(spelling string, parentPaths []string) string {
	base := filepath.Base(spelling)
	var candidates []string
	for _, dir := range append(append([]string{}, parentPaths...), r.includePaths...) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if !e.IsDir() {
				candidates = append(candidates, e.Name())
			}
		}
	}
	if len(candidates) == 0 {
		return ""
	}
	best, err := edlib.FuzzySearch(base, candidates, edlib.Levenshtein)
	if err != nil {
		return ""
	}
	return best
}

// BuiltinMacros returns the textual #define dump the host compiler emits
// for an empty input (`cc -dM -E - < /dev/null`).
func (r *Resolver) BuiltinMacros(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, r.ccExePath, "-dM", "-E", "-")
	cmd.Stdin = strings.NewReader("")
	out, err := cmd.Output()
	if err != nil {
		return "", &herrors.ExternalToolError{Tool: r.ccExePath, Args: []string{"-dM", "-E", "-"}, Underlying: err}
	}
	return string(out), nil
}
