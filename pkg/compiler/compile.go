package compiler

import (
	"fmt"

	"go.uber.org/zap"
)

// Options controls one Compile invocation. It is a plain struct, not a
// builder or a functional-options chain: the pipeline has exactly two
// knobs (§6's -o flag and the output path), and every field is read once
// at the top of Compile.
type Options struct {
	// OptimizeEnabled runs the AST and instruction-stream peephole passes
	// when true (the -o=1 CLI flag). Disabled, codegen's raw output is
	// written unmodified.
	OptimizeEnabled bool

	// OutputPath is where the instruction stream is written, in addition
	// to stdout (§6). Defaults to "instructions.txt" if empty.
	OutputPath string

	// Logger receives pipeline stage diagnostics. A nil Logger is treated
	// as diag.Noop().
	Logger *zap.Logger
}

// Compile runs the full pipeline — lex, parse, analyze, optionally
// AST-optimize, generate, optionally instruction-optimize, write — over
// src. On a semantic error it returns that error unwrapped so the CLI layer
// can format it per §6/§7's stderr contract; any other error (lex/parse
// failure, I/O failure) is also returned as-is.
func Compile(src string, opts Options) ([]Instruction, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	outputPath := opts.OutputPath
	if outputPath == "" {
		outputPath = "instructions.txt"
	}

	tokens, err := Lex(src)
	if err != nil {
		return nil, fmt.Errorf("lex error: %w", err)
	}
	log.Debug("lexed", zap.Int("tokens", len(tokens)))

	program, err := ParseProgram(tokens, src)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	log.Debug("parsed", zap.Int("top_level_decls", len(program.Stmts)))

	usedBuiltins, err := Analyze(program)
	if err != nil {
		return nil, err
	}
	log.Debug("analyzed", zap.Int("referenced_builtins", len(usedBuiltins)))

	if opts.OptimizeEnabled {
		program = OptimizeAST(program)
		log.Debug("AST-optimized")
	}

	instrs := Generate(program, usedBuiltins)
	log.Debug("generated", zap.Int("instructions", len(instrs)))

	if opts.OptimizeEnabled {
		before := len(instrs)
		instrs = Optimize(instrs)
		log.Debug("instruction-optimized", zap.Int("before", before), zap.Int("after", len(instrs)))
	}

	if err := WriteInstructions(outputPath, instrs); err != nil {
		return nil, fmt.Errorf("write error: %w", err)
	}
	return instrs, nil
}
