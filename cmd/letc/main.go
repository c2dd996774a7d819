package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"letc/pkg/compiler"
	"letc/pkg/utils"
)

// config is everything compileFile needs besides the path.
type config struct {
	program bool
	output  string
	verbose bool
	opts    compiler.Options
}

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), `Usage: letc [flags] <file> [file...]

Compiles each file to LLVM IR in <file>.ll.
By default every instruction is compiled into its own module and the output
file is rewritten after each one, so it ends up holding the last instruction.

Flags:
`)
	flag.PrintDefaults()
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("letc: ")

	var cfg config
	trapDiv := flag.Bool("trap-div", true, "trap at runtime on division by zero or overflow")
	jobs := flag.Int("j", 4, "number of files compiled at once")
	flag.BoolVar(&cfg.program, "program", false, "compile all instructions of a file into one module")
	flag.StringVar(&cfg.output, "o", "", "output path (single input only; default <file>.ll)")
	flag.BoolVar(&cfg.verbose, "v", false, "log the AST of every compiled instruction")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}
	if cfg.output != "" && flag.NArg() > 1 {
		log.Print("-o needs exactly one input file")
		os.Exit(2)
	}
	if *jobs < 1 {
		*jobs = 1
	}

	cfg.opts = compiler.DefaultOptions()
	cfg.opts.TrapDivision = *trapDiv

	if err := run(context.Background(), flag.Args(), *jobs, cfg); err != nil {
		log.Print(err)
		os.Exit(1)
	}
}

// run compiles paths concurrently; the first failure cancels the rest.
func run(ctx context.Context, paths []string, jobs int, cfg config) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for _, path := range paths {
		path := path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return compileFile(ctx, path, cfg)
		})
	}
	return g.Wait()
}

func compileFile(ctx context.Context, path string, cfg config) error {
	fullPath, _, err := utils.GetPathInfo(path)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	src, err := os.ReadFile(fullPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	out := cfg.output
	if out == "" {
		if out, err = utils.OutputPath(fullPath); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	name := filepath.Base(fullPath)

	if cfg.program {
		ir, err := compiler.CompileProgram(name, string(src), cfg.opts)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if err := utils.WriteFile(out, ir); err != nil {
			return err
		}
		log.Printf("%s -> %s", path, out)
		return nil
	}

	count := 0
	err = compiler.CompileStatements(name, string(src), cfg.opts, func(u compiler.Unit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if cfg.verbose {
			log.Printf("%s: [%d] %s", path, u.Index+1, u.Node)
		}
		count++
		return utils.WriteFile(out, u.IR)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	log.Printf("%s -> %s (%d instructions)", path, out, count)
	return nil
}
