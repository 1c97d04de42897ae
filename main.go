package main

import (
	"errors"
	"fmt"
	"go/ast"
	"log/slog"
	"os"
	"sync"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/analysis/singlechecker"
	"golang.org/x/tools/go/ast/inspector"

	"github.com/sirkon/nullflow/internal/config"
	"github.com/sirkon/nullflow/internal/flow"
	"github.com/sirkon/nullflow/internal/gofront"
	"github.com/sirkon/nullflow/internal/nullrules"
	"github.com/sirkon/nullflow/internal/report"
)

const doc = `nullflow reports possible nil dereferences found by flow-sensitive nullability analysis

Every function body is walked with the state of each pointer, interface and
function value tracked through branches, loops and function literals. Nil
checks refine the state, calls of functions known to never return end a
branch, and configured functions may promise or deny nil results.`

// Analyzer is the main entry point for the linter
var Analyzer = &analysis.Analyzer{
	Name:     "nullflow",
	Doc:      doc,
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

var (
	configPath string
	debug      bool
	summary    bool
	showHidden bool

	configLock sync.Mutex
	configs    = map[string]loadedConfig{}

	summaryLock sync.Mutex
)

type loadedConfig struct {
	annotations *config.Annotations
	err         error
}

func init() {
	Analyzer.Flags.StringVar(&configPath, "config", "", "path to a YAML file with function annotations")
	Analyzer.Flags.BoolVar(&debug, "debug", false, "log analysis steps to stderr")
	Analyzer.Flags.BoolVar(&summary, "summary", false, "print a summary table of diagnostics per package to stderr")
	Analyzer.Flags.BoolVar(&showHidden, "hidden", false, "report hidden diagnostics, redundant nil checks among them")
}

func main() {
	singlechecker.Main(Analyzer)
}

// loadConfig reads the config once per path, every package of a run shares it.
func loadConfig() (*config.Annotations, error) {
	configLock.Lock()
	defer configLock.Unlock()

	if c, ok := configs[configPath]; ok {
		return c.annotations, c.err
	}

	var c loadedConfig
	if configPath == "" {
		c.annotations = config.Default().Annotations()
	} else if cfg, err := config.Load(configPath); err != nil {
		c.err = err
	} else {
		c.annotations = cfg.Annotations()
	}
	configs[configPath] = c
	return c.annotations, c.err
}

func logger() *slog.Logger {
	if !debug {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func run(pass *analysis.Pass) (any, error) {
	annotations, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger().With("package", pass.Pkg.Path())
	pector := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)
	translator := gofront.New(pass.Pkg, pass.TypesInfo, gofront.Options{
		Annotations: annotations,
		Logger:      log,
	})
	reporter := report.New()

	nodeFilter := []ast.Node{
		(*ast.File)(nil),
		(*ast.FuncDecl)(nil),
	}

	var generated bool
	var failure error
	pector.Preorder(nodeFilter, func(node ast.Node) {
		if failure != nil {
			return
		}

		switch n := node.(type) {
		case *ast.File:
			generated = ast.IsGenerated(n)
		case *ast.FuncDecl:
			if generated || n.Body == nil {
				return
			}
			failure = checkFunction(n, translator, reporter, log)
		}
	})
	if failure != nil {
		return nil, failure
	}

	for _, d := range reporter.Reports() {
		if d.Rule.IsHidden() && !showHidden {
			continue
		}
		pass.Report(analysis.Diagnostic{
			Pos:      d.Pos,
			End:      d.End,
			Category: d.Rule.Code(),
			Message:  d.String(),
		})
	}

	if summary && reporter.Len() > 0 {
		summaryLock.Lock()
		defer summaryLock.Unlock()
		fmt.Fprintf(os.Stderr, "package %s\n", pass.Pkg.Path())
		if err := reporter.PrintSummary(os.Stderr, pass.Fset); err != nil {
			return nil, fmt.Errorf("print summary: %w", err)
		}
	}

	return nil, nil
}

// checkFunction lowers the declaration and analyses its body. Bodies that
// cannot be lowered or are too deep are reported and skipped.
func checkFunction(decl *ast.FuncDecl, translator *gofront.Translator, reporter *report.Reporter, log *slog.Logger) error {
	fn, err := translator.Function(decl)
	if err != nil {
		log.Debug("lowering failed", "function", decl.Name.Name, "err", err)
		reporter.Phase(report.PhaseSource).Report(nullrules.AnalysisIncomplete(), decl, decl.Name.Name, err)
		return nil
	}

	res, err := flow.Analyze(fn, flow.Options{
		Reporter: reporter,
		Logger:   log,
	})
	if err != nil {
		if errors.Is(err, flow.ErrAnalysisAborted) {
			log.Debug("analysis aborted", "function", fn.Name, "err", err)
			return nil
		}
		return err
	}

	log.Debug(
		"function analysed",
		"function", fn.Name,
		"passes", res.Stats.Passes,
		"slots", res.Stats.Slots,
		"diagnostics", len(res.Diagnostics),
	)
	return nil
}
