package external

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tomlv2 "github.com/pelletier/go-toml/v2"

	"github.com/hayroll-dev/hayroll/internal/compilecommand"
	"github.com/hayroll-dev/hayroll/internal/config"
	"github.com/hayroll-dev/hayroll/internal/linemapper"
	"github.com/hayroll-dev/hayroll/internal/tempdir"
)

// Transpile calls the target-language transpiler on one seeded compilation
// unit and returns the produced source plus its generated Cargo.toml,
// grounded in C2RustWrapper.hpp's transpile.
func Transpile(ctx context.Context, tools config.Tools, seededCuStr string, cmd compilecommand.Command) (rustCode, cargoToml string, err error) {
	inputDir, err := tempdir.New()
	if err != nil {
		return "", "", err
	}
	defer inputDir.Close()

	inputFilePath := filepath.Join(inputDir.Path(), "input.seeded.cu.c")
	noLinemarkers := linemapper.StripLinemarkers(seededCuStr)
	if err := os.WriteFile(inputFilePath, []byte(noLinemarkers), 0o644); err != nil {
		return "", "", err
	}

	newCmd := cmd.WithUpdatedFile(inputFilePath)

	ccDir, err := tempdir.New()
	if err != nil {
		return "", "", err
	}
	defer ccDir.Close()
	ccPath := filepath.Join(ccDir.Path(), "compile_commands.json")
	ccJSON, err := compilecommand.ToJSON([]compilecommand.Command{newCmd})
	if err != nil {
		return "", "", err
	}
	if err := os.WriteFile(ccPath, ccJSON, 0o644); err != nil {
		return "", "", err
	}

	outDir, err := tempdir.New()
	if err != nil {
		return "", "", err
	}
	defer outDir.Close()

	stdout, stderr, err := run(ctx, "", tools.C2RustExe,
		"transpile", "--reorganize-definitions", "--emit-build-files",
		ccPath, "--output-dir", outDir.Path())
	if err != nil {
		return "", "", err
	}

	// c2rust replaces '.' with '_' in the generated module's file name.
	rustFilePath := filepath.Join(outDir.Path(), "src", "input_seeded_cu.rs")
	rustBytes, err := os.ReadFile(rustFilePath)
	if err != nil {
		return "", "", missingOutputErr(tools.C2RustExe, rustFilePath, stdout, stderr)
	}

	cargoTomlPath := filepath.Join(outDir.Path(), "Cargo.toml")
	cargoBytes, err := os.ReadFile(cargoTomlPath)
	if err != nil {
		return "", "", missingOutputErr(tools.C2RustExe, cargoTomlPath, stdout, stderr)
	}

	return string(rustBytes), string(cargoBytes), nil
}

// MergeCargoTomls folds the [dependencies] table of every subsequent
// Cargo.toml into the first, later-listed dependency entries overwriting
// earlier ones sharing a key, grounded in C2RustWrapper.hpp's
// mergeCargoTomls (toml11's ordered_value merge there; go-toml/v2's
// generic-map decode here, since ordering among dependency keys doesn't
// affect the build).
func MergeCargoTomls(cargoTomls []string) (string, error) {
	if len(cargoTomls) == 0 {
		return "", nil
	}

	var base map[string]any
	if err := tomlv2.Unmarshal([]byte(cargoTomls[0]), &base); err != nil {
		return "", fmt.Errorf("external: parsing base Cargo.toml: %w", err)
	}

	for _, next := range cargoTomls[1:] {
		var nextDoc map[string]any
		if err := tomlv2.Unmarshal([]byte(next), &nextDoc); err != nil {
			return "", fmt.Errorf("external: parsing Cargo.toml to merge: %w", err)
		}
		nextDeps, ok := nextDoc["dependencies"].(map[string]any)
		if !ok {
			continue
		}
		baseDeps, ok := base["dependencies"].(map[string]any)
		if !ok {
			baseDeps = map[string]any{}
			base["dependencies"] = baseDeps
		}
		for k, v := range nextDeps {
			baseDeps[k] = v
		}
	}

	out, err := tomlv2.Marshal(base)
	if err != nil {
		return "", fmt.Errorf("external: formatting merged Cargo.toml: %w", err)
	}
	return string(out), nil
}

// BuildFiles bundles the four files c2rust's --emit-build-files mode
// produces at the output root.
type BuildFiles struct {
	BuildRs           string
	CargoToml         string
	LibRs             string
	RustToolchainToml string
}

// GenerateBuildFiles calls the transpiler once over every compile command
// with --emit-build-files and reads the four generated files back
// unmodified, grounded in C2RustWrapper.hpp's generateBuildFiles ("simple
// version... without any modification").
func GenerateBuildFiles(ctx context.Context, tools config.Tools, compileCommands []compilecommand.Command) (BuildFiles, error) {
	ccDir, err := tempdir.New()
	if err != nil {
		return BuildFiles{}, err
	}
	defer ccDir.Close()

	ccPath := filepath.Join(ccDir.Path(), "compile_commands.json")
	ccJSON, err := compilecommand.ToJSON(compileCommands)
	if err != nil {
		return BuildFiles{}, err
	}
	if err := os.WriteFile(ccPath, ccJSON, 0o644); err != nil {
		return BuildFiles{}, err
	}

	outDir, err := tempdir.New()
	if err != nil {
		return BuildFiles{}, err
	}
	defer outDir.Close()

	stdout, stderr, err := run(ctx, "", tools.C2RustExe,
		"transpile", "--reorganize-definitions", "--emit-build-files",
		ccPath, "--output-dir", outDir.Path())
	if err != nil {
		return BuildFiles{}, err
	}

	requireFile := func(name string) (string, error) {
		p := filepath.Join(outDir.Path(), name)
		b, err := os.ReadFile(p)
		if err != nil {
			return "", missingOutputErr(tools.C2RustExe, p, stdout, stderr)
		}
		return string(b), nil
	}

	buildRs, err := requireFile("build.rs")
	if err != nil {
		return BuildFiles{}, err
	}
	cargoToml, err := requireFile("Cargo.toml")
	if err != nil {
		return BuildFiles{}, err
	}
	libRs, err := requireFile("lib.rs")
	if err != nil {
		return BuildFiles{}, err
	}
	rustToolchainToml, err := requireFile("rust-toolchain.toml")
	if err != nil {
		return BuildFiles{}, err
	}

	return BuildFiles{BuildRs: buildRs, CargoToml: cargoToml, LibRs: libRs, RustToolchainToml: rustToolchainToml}, nil
}

// AddBinEntry appends a [[bin]] table naming the binary crate target
// (spec §6's "-b/--binary NAME" CLI flag; Pipeline.hpp calls this
// genLibRs/genBuildRs-equivalent behavior, though the genLibRs/genBuildRs
// bodies themselves are not present in the retrieval pack — only their
// call sites are, so this reconstructs the documented effect: the merged
// manifest gets a [[bin]] entry naming the translation unit whose main()
// the binary crate should use).
func AddBinEntry(cargoToml, binaryName, binaryPath string) (string, error) {
	var doc map[string]any
	if err := tomlv2.Unmarshal([]byte(cargoToml), &doc); err != nil {
		return "", fmt.Errorf("external: parsing Cargo.toml for bin entry: %w", err)
	}
	bins, _ := doc["bin"].([]any)
	bins = append(bins, map[string]any{"name": binaryName, "path": binaryPath})
	doc["bin"] = bins

	out, err := tomlv2.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("external: formatting Cargo.toml with bin entry: %w", err)
	}
	return string(out), nil
}

// AddFeaturesToCargoToml declares one empty Cargo feature per atom in
// featureAtoms (the driver passes the macro names its units' DefineSets
// define), so conditionally-compiled code the seeder tagged can be switched on a
// per-feature basis downstream.
func AddFeaturesToCargoToml(cargoToml string, featureAtoms []string) (string, error) {
	if len(featureAtoms) == 0 {
		return cargoToml, nil
	}
	var doc map[string]any
	if err := tomlv2.Unmarshal([]byte(cargoToml), &doc); err != nil {
		return "", fmt.Errorf("external: parsing Cargo.toml for features: %w", err)
	}
	features, _ := doc["features"].(map[string]any)
	if features == nil {
		features = map[string]any{}
	}
	for _, atom := range featureAtoms {
		if _, exists := features[atom]; !exists {
			features[atom] = []string{}
		}
	}
	doc["features"] = features

	out, err := tomlv2.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("external: formatting Cargo.toml with features: %w", err)
	}
	return string(out), nil
}
