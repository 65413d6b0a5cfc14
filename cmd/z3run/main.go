// Command z3run checks SMT-LIB2 scripts with the Z3 engine.
//
// Each file is asserted into a fresh solver and checked; the status is
// printed, followed by the model when the script is satisfiable.
//
//	z3run -lib /usr/lib/libz3.so problem.smt2
//	z3run -watch problem.smt2   (re-check whenever a file changes)
//	z3run -i                    (interactive mode)
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"golang.org/x/term"

	z3 "github.com/typedz3/z3"
)

var (
	satStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#98FB98"))

	unsatStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B"))

	unknownStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFD166"))

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	modelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AAAAAA"))
)

func main() {
	var (
		libPath     = flag.String("lib", os.Getenv(z3.EnvLibraryPath), "Path to the Z3 shared library")
		timeout     = flag.Duration("timeout", 0, "Solver timeout per check (0 for none)")
		verbose     = flag.Bool("v", false, "Verbose logging")
		showModel   = flag.Bool("model", true, "Print the model of satisfiable scripts")
		watch       = flag.Bool("watch", false, "Re-check scripts when they change, and reload the library when it changes")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *libPath == "" || (!*interactive && flag.NArg() == 0) {
		fmt.Fprintln(os.Stderr, "Usage: z3run [-lib libz3.so] [-timeout 5s] [-model=false] file.smt2...")
		fmt.Fprintln(os.Stderr, "       z3run [-lib libz3.so] -watch file.smt2...")
		fmt.Fprintln(os.Stderr, "       z3run [-lib libz3.so] -i  (interactive mode)")
		fmt.Fprintf(os.Stderr, "The library defaults to $%s.\n", z3.EnvLibraryPath)
		os.Exit(2)
	}

	log, err := newLogger(*verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	z3.SetLogger(log)

	lib, err := z3.LoadLibrary(*libPath, z3.WithLibraryLogger(log))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	z3.SetDefaultLibrary(lib)
	log.Debug("using library", zap.Stringer("library", lib))

	r := &runner{
		out:       os.Stdout,
		timeout:   *timeout,
		showModel: *showModel,
		styled:    term.IsTerminal(int(os.Stdout.Fd())),
	}

	switch {
	case *interactive:
		err = runInteractive(r)
	case *watch:
		err = watchFiles(r, *libPath, flag.Args(), log)
	default:
		err = r.runFiles(flag.Args())
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	cfg.Encoding = "console"
	return cfg.Build()
}

// runner checks scripts. A nil lib means the process default library,
// which follows reloads in watch mode.
type runner struct {
	lib       *z3.Library
	out       io.Writer
	timeout   time.Duration
	showModel bool
	styled    bool
}

// result is the outcome of checking one script.
type result struct {
	status z3.Status
	model  string
	reason string
}

func (r *runner) newContext() (*z3.Context, error) {
	if r.lib != nil {
		return z3.NewContext(z3.WithLibrary(r.lib))
	}
	return z3.NewContext()
}

// check asserts src into a fresh solver and checks it.
func (r *runner) check(src string) (result, error) {
	ctx, err := r.newContext()
	if err != nil {
		return result{}, err
	}
	defer ctx.Close()

	s, err := ctx.NewSolver()
	if err != nil {
		return result{}, err
	}
	if r.timeout > 0 {
		if err := s.SetParams(z3.NewParams().SetTimeout(r.timeout)); err != nil {
			return result{}, err
		}
	}
	if err := s.FromString(src); err != nil {
		return result{}, err
	}
	st, err := s.Check()
	if err != nil {
		return result{}, err
	}

	res := result{status: st}
	switch st {
	case z3.Satisfiable:
		m, err := s.Model()
		if err != nil {
			return result{}, err
		}
		res.model = m.String()
	case z3.Unknown:
		if res.reason, err = s.ReasonUnknown(); err != nil {
			return result{}, err
		}
	}
	return res, nil
}

// parse asserts src into a fresh solver without checking it and returns
// the number of assertions.
func (r *runner) parse(src string) (int, error) {
	ctx, err := r.newContext()
	if err != nil {
		return 0, err
	}
	defer ctx.Close()

	s, err := ctx.NewSolver()
	if err != nil {
		return 0, err
	}
	if err := s.FromString(src); err != nil {
		return 0, err
	}
	as, err := s.Assertions()
	return len(as), err
}

func (r *runner) runFiles(files []string) error {
	for _, f := range files {
		if err := r.runFile(f); err != nil {
			return err
		}
	}
	return nil
}

func (r *runner) runFile(name string) error {
	data, err := os.ReadFile(name)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	res, err := r.check(string(data))
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	r.print(name, res)
	return nil
}

func (r *runner) print(name string, res result) {
	fmt.Fprintf(r.out, "%s %s", r.render(statusStyle(res.status), res.status.String()), r.render(nameStyle, name))
	if res.reason != "" {
		fmt.Fprintf(r.out, " (%s)", res.reason)
	}
	fmt.Fprintln(r.out)
	if r.showModel && res.model != "" {
		fmt.Fprint(r.out, r.render(modelStyle, res.model))
	}
}

func (r *runner) render(style lipgloss.Style, s string) string {
	if !r.styled {
		return s
	}
	return style.Render(s)
}

func statusStyle(st z3.Status) lipgloss.Style {
	switch st {
	case z3.Satisfiable:
		return satStyle
	case z3.Unsatisfiable:
		return unsatStyle
	default:
		return unknownStyle
	}
}

// watchFiles checks every file once, then again whenever one of them is
// written. A change to the library itself installs the new build as the
// default, and later checks run on it.
func watchFiles(r *runner, libPath string, files []string, log *zap.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	watched := make(map[string]string, len(files))
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return err
		}
		watched[abs] = f
		if err := w.Add(filepath.Dir(abs)); err != nil {
			return err
		}
	}

	lw, err := z3.WatchLibrary(libPath, z3.WithLibraryLogger(log))
	if err != nil {
		return err
	}
	defer lw.Close()

	for _, f := range files {
		if err := r.runFile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			name, ok := watched[filepath.Clean(ev.Name)]
			if !ok || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := r.runFile(name); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", zap.Error(err))
		case l := <-lw.Reloaded():
			fmt.Fprintf(r.out, "reloaded %s\n", l)
			for _, f := range files {
				if err := r.runFile(f); err != nil {
					fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				}
			}
		case err := <-lw.Errors():
			log.Warn("library reload failed", zap.Error(err))
		}
	}
}
