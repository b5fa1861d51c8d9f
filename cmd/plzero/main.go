// Command plzero compiles a single source file into the stack-machine
// instruction stream described in §6, writing it to instructions.txt and to
// stdout.
package main

import (
	"fmt"
	"os"

	"github.com/smasonuk/plzero/internal/diag"
	"github.com/smasonuk/plzero/pkg/compiler"
	"github.com/urfave/cli"
)

func main() {
	app := cli.NewApp()
	app.Name = "plzero"
	app.Usage = "compile a source file to stack-machine instructions"
	app.ArgsUsage = "<input_file>"
	app.Version = "0.1.0"
	app.ErrWriter = os.Stderr

	app.Flags = []cli.Flag{
		cli.IntFlag{
			Name:  "o",
			Value: 1,
			Usage: "optimization level: 0 (off) or 1 (peephole optimizer on, the default)",
		},
		cli.StringFlag{
			Name:  "out",
			Value: "instructions.txt",
			Usage: "path to write the instruction stream to",
		},
		cli.BoolFlag{
			Name:  "verbose",
			Usage: "log pipeline stage diagnostics to stderr",
		},
	}

	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run implements the Action. The only positional argument is the input file;
// -o may appear before or after it, matching the leniency §9 calls for.
func run(c *cli.Context) error {
	// Flags after the first positional argument are not parsed by cli, so a
	// trailing "-o N" or "-o=N" is picked out of the positional list here.
	optLevel := c.Int("o")
	var inputs []string
	args := c.Args()
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "-o" && i+1 < len(args) {
			i++
			a = "-o=" + args[i]
		}
		if _, err := fmt.Sscanf(a, "-o=%d", &optLevel); err == nil {
			continue
		}
		inputs = append(inputs, a)
	}
	if len(inputs) != 1 {
		return cli.NewExitError("plzero: exactly one input file is required", 1)
	}
	inputPath := inputs[0]

	if optLevel != 0 && optLevel != 1 {
		return cli.NewExitError(fmt.Sprintf("plzero: -o must be 0 or 1, got %d", optLevel), 1)
	}

	src, err := os.ReadFile(inputPath)
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("plzero: %v", err), 1)
	}

	logger := diag.Noop()
	if c.Bool("verbose") {
		logger = diag.New(true)
	}
	defer logger.Sync() //nolint:errcheck

	_, err = compiler.Compile(string(src), compiler.Options{
		OptimizeEnabled: optLevel == 1,
		OutputPath:      c.String("out"),
		Logger:          logger,
	})
	if err != nil {
		// §7's contractual format: a single line on stderr, nothing else,
		// exit code 1. SemanticError and DeveloperError already format
		// themselves this way; anything else (I/O, lex/parse failure) is
		// printed as-is.
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return nil
}
