package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/shibukawa/simal"
	"github.com/shibukawa/simal/ast"
	"github.com/shibukawa/simal/intermediate"
	"github.com/shibukawa/simal/markdownparser"
	"github.com/shibukawa/simal/parser"
)

// Sentinel errors
var (
	ErrInputFileNotExist = errors.New("input file does not exist")
)

// GenerateCmd represents the generate command
type GenerateCmd struct {
	Input               string `arg:"" help:"Input .siml, .simal, or .md file" type:"path"`
	Output              string `short:"o" help:"Output directory (defaults to generation.output or the input directory)"`
	JSON                bool   `help:"Write the full round-trip JSON form"`
	Simple              bool   `help:"Write the simplified JSON form"`
	MaxSimple           bool   `help:"Write the maximally simplified JSON form"`
	MergeDuplicateAttrs *bool  `help:"Merge duplicate attributes instead of replacing" negatable:""`
}

// Run executes the generate command
func (g *GenerateCmd) Run(ctx *Context) error {
	config, err := simal.LoadConfig(ctx.Config)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// an explicit --merge-duplicate-attrs / --no-merge-duplicate-attrs
	// overrides the configured default
	merge := config.Parser.ShouldMergeDuplicateAttrs()
	if g.MergeDuplicateAttrs != nil {
		merge = *g.MergeDuplicateAttrs
	}

	system, err := parseInput(g.Input, merge)
	if err != nil {
		if !ctx.Quiet {
			color.Red("Failed to parse %s: %v", g.Input, err)
		}
		return err
	}

	outputDir := g.Output
	if outputDir == "" {
		outputDir = config.Generation.Output
	}
	if outputDir == "" {
		outputDir = filepath.Dir(g.Input)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(g.Input), filepath.Ext(g.Input))
	pretty := config.Generation.IsPretty()

	// explicit form flags override the configured defaults
	emitJSON, emitSimple, emitMaxSimple := g.JSON, g.Simple, g.MaxSimple
	if !emitJSON && !emitSimple && !emitMaxSimple {
		emitJSON = config.Generation.EmitJSON()
		emitSimple = config.Generation.EmitSimple()
		emitMaxSimple = config.Generation.MaxSimple
	}

	if ctx.Verbose {
		color.Blue("Generating JSON forms from %s into %s", g.Input, outputDir)
	}

	if emitJSON {
		data, err := encodeTagged(system, pretty)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", g.Input, err)
		}
		if err := writeOutput(ctx, filepath.Join(outputDir, base+".json"), data); err != nil {
			return err
		}
	}
	if emitSimple {
		data, err := encodeSimple(system, intermediate.SimpleOptions{}, pretty)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", g.Input, err)
		}
		if err := writeOutput(ctx, filepath.Join(outputDir, base+"_simple.json"), data); err != nil {
			return err
		}
	}
	if emitMaxSimple {
		data, err := encodeSimple(system, intermediate.SimpleOptions{MaxSimplify: true}, pretty)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", g.Input, err)
		}
		if err := writeOutput(ctx, filepath.Join(outputDir, base+"_max_simple.json"), data); err != nil {
			return err
		}
	}

	return nil
}

// ValidateCmd represents the validate command
type ValidateCmd struct {
	Input string `arg:"" help:"Input .siml, .simal, or .md file" type:"path"`
}

// Run executes the validate command
func (v *ValidateCmd) Run(ctx *Context) error {
	config, err := simal.LoadConfig(ctx.Config)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	_, err = parseInput(v.Input, config.Parser.ShouldMergeDuplicateAttrs())
	if err != nil {
		if !ctx.Quiet {
			color.Red("✗ %s: %v", v.Input, err)
		}
		return err
	}

	if !ctx.Quiet {
		color.Green("✓ %s is valid", v.Input)
	}
	return nil
}

// parseInput loads SIML source from a plain or literate markdown file and
// runs the structural parser plus enrichment on it.
func parseInput(path string, mergeDuplicateAttrs bool) (*ast.System, error) {
	source, err := loadSource(path)
	if err != nil {
		return nil, err
	}
	opts := parser.Options{MergeDuplicateAttrs: mergeDuplicateAttrs}
	return parser.ParseWithOptions(source, opts)
}

// loadSource reads the SIML text of an input file. Markdown inputs go
// through the literate front end.
func loadSource(path string) (string, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return "", fmt.Errorf("%w: %s", ErrInputFileNotExist, path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".siml", ".simal":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", path, err)
		}
		if strings.TrimSpace(string(data)) == "" {
			return "", fmt.Errorf("%w: %s", simal.ErrEmptySource, path)
		}
		return string(data), nil

	case ".md", ".markdown":
		file, err := os.Open(path)
		if err != nil {
			return "", fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer file.Close()
		doc, err := markdownparser.Parse(file)
		if err != nil {
			return "", fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return doc.Source, nil

	default:
		return "", fmt.Errorf("%w: %s", simal.ErrUnsupportedInput, path)
	}
}

func encodeTagged(system *ast.System, pretty bool) ([]byte, error) {
	if pretty {
		return intermediate.EncodeIndent(system)
	}
	return intermediate.Encode(system)
}

func encodeSimple(system *ast.System, opts intermediate.SimpleOptions, pretty bool) ([]byte, error) {
	if pretty {
		return intermediate.EncodeSimpleIndent(system, opts)
	}
	return intermediate.EncodeSimple(system, opts)
}

func writeOutput(ctx *Context, path string, data []byte) error {
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if !ctx.Quiet {
		color.Green("Generated: %s", path)
	}
	return nil
}
