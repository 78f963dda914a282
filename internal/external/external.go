// Package external shells out to the collaborator binaries the pipeline
// itself does not implement: a host C preprocessor, the macro analyzer that
// produces invocation/range summaries, the transpiler, and the four
// target-language refactoring passes (reaper, merger, cleaner, inliner;
// spec §6, grounded in
// original_source/src/RewriteIncludesWrapper.hpp, MakiWrapper.hpp,
// C2RustWrapper.hpp, and RustRefactorWrapper.hpp). Every call here runs one
// subprocess via os/exec (the Go analogue of subprocess::Popen) against
// scratch directories from internal/tempdir, and returns an
// *herrors.ExternalToolError on a non-zero exit or missing output file.
package external

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"

	"github.com/hayroll-dev/hayroll/internal/herrors"
)

// run executes name with args in dir, capturing stdout/stderr, and wraps a
// non-zero exit in an *herrors.ExternalToolError exactly as every *Wrapper.hpp
// class does around subprocess::Popen::communicate()+retcode().
func run(ctx context.Context, dir, name string, args ...string) (stdout, stderr string, err error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	runErr := cmd.Run()
	stdout, stderr = outBuf.String(), errBuf.String()
	if runErr != nil {
		exitCode := -1
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
		return stdout, stderr, &herrors.ExternalToolError{
			Tool:       name,
			Args:       args,
			ExitCode:   exitCode,
			StderrTail: tail(stderr, 4096),
			Underlying: runErr,
		}
	}
	return stdout, stderr, nil
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

func missingOutputErr(tool, path, stdout, stderr string) error {
	return &herrors.ExternalToolError{
		Tool:       tool,
		StderrTail: tail(stderr, 4096),
		Underlying: fmt.Errorf("expected output file missing: %s\nstdout:\n%s\nstderr:\n%s", path, stdout, stderr),
	}
}

func itoa(n int) string { return strconv.Itoa(n) }

// herrorsMissingMakiDir reports an ExternalToolError when a run needs the
// macro analyzer but no .hayroll.kdl tools block ever set config.Tools.MakiDir.
func herrorsMissingMakiDir() error {
	return &herrors.ExternalToolError{
		Tool:       "maki",
		Underlying: fmt.Errorf("tools.maki_dir is not configured; set it in .hayroll.kdl"),
	}
}
