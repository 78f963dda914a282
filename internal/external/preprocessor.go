package external

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/hayroll-dev/hayroll/internal/compilecommand"
	"github.com/hayroll-dev/hayroll/internal/config"
	"github.com/hayroll-dev/hayroll/internal/linemapper"
	"github.com/hayroll-dev/hayroll/internal/tempdir"
)

// RunRewriteIncludes drives the host preprocessor's -frewrite-includes mode
// over one compile command and returns the inlined compilation unit text,
// grounded in original_source/src/RewriteIncludesWrapper.hpp's
// runRewriteIncludes.
func RunRewriteIncludes(ctx context.Context, tools config.Tools, cmd compilecommand.Command) (string, error) {
	dir, err := tempdir.New()
	if err != nil {
		return "", err
	}
	defer dir.Close()

	outputPath := filepath.Join(dir.Path(), "rewrite_includes.cu.c")

	args := []string{"-E", "-frewrite-includes"}
	for _, arg := range cmd.Arguments {
		if strings.HasPrefix(arg, "-D") || strings.HasPrefix(arg, "-I") {
			args = append(args, arg)
		}
	}
	args = append(args, "-o", outputPath, cmd.File)

	stdout, stderr, err := run(ctx, cmd.Directory, tools.ClangExe, args...)
	if err != nil {
		return "", err
	}

	out, err := os.ReadFile(outputPath)
	if err != nil {
		return "", missingOutputErr(tools.ClangExe, outputPath, stdout, stderr)
	}
	return string(out), nil
}

// RunRewriteIncludesThenStrip is the step MakiWrapper.hpp's runCpp2cOnCu
// performs before saving each command's CU file: rewrite includes, then
// blank the linemarkers the macro analyzer has no use for.
func RunRewriteIncludesThenStrip(ctx context.Context, tools config.Tools, cmd compilecommand.Command) (string, error) {
	cuStr, err := RunRewriteIncludes(ctx, tools, cmd)
	if err != nil {
		return "", err
	}
	return linemapper.StripLinemarkers(cuStr), nil
}
