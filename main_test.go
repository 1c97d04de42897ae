package main

import (
	"go/ast"
	"go/types"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/sirkon/deepequal"
	"golang.org/x/tools/go/analysis/analysistest"

	"github.com/sirkon/nullflow/internal/gofront"
	"github.com/sirkon/nullflow/internal/nullrules"
	"github.com/sirkon/nullflow/internal/report"
)

func TestNullflow(t *testing.T) {
	tests := []struct {
		name   string
		pkg    string
		config string
	}{
		{
			name: "built-in annotations",
			pkg:  "nilcheck",
		},
		{
			name:   "configured annotations",
			pkg:    "configured",
			config: "nullflow.yaml",
		},
	}

	testdata := analysistest.TestData()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := ""
			if tt.config != "" {
				path = filepath.Join(testdata, tt.config)
			}
			setFlag(t, "config", path)

			analysistest.Run(t, testdata, Analyzer, tt.pkg)
		})
	}
}

func TestNullflowBadConfig(t *testing.T) {
	setFlag(t, "config", filepath.Join(t.TempDir(), "missing.yaml"))

	loaded, err := loadConfig()
	if err == nil {
		t.Fatalf("error expected for a missing config, got %v", loaded)
	}
}

func TestCheckFunctionNotLowered(t *testing.T) {
	decl := &ast.FuncDecl{
		Name: ast.NewIdent("orphan"),
		Type: &ast.FuncType{},
		Body: &ast.BlockStmt{},
	}
	translator := gofront.New(types.NewPackage("orphans", "orphans"), &types.Info{Defs: map[*ast.Ident]types.Object{}}, gofront.Options{})
	reporter := report.New()

	if err := checkFunction(decl, translator, reporter, slog.New(slog.DiscardHandler)); err != nil {
		t.Fatalf("a body that cannot be lowered must be reported, not fail the pass: %v", err)
	}

	type finding struct {
		Phase report.Phase
		Rule  nullrules.Rule
	}
	var got []finding
	for _, d := range reporter.Reports() {
		got = append(got, finding{Phase: d.Phase, Rule: d.Rule})
	}
	want := []finding{{Phase: report.PhaseSource, Rule: nullrules.NUL900AnalysisIncomplete}}
	deepequal.SideBySide(t, "lowering failure", want, got)
}

func setFlag(t *testing.T, name, value string) {
	t.Helper()

	prev := Analyzer.Flags.Lookup(name).Value.String()
	if err := Analyzer.Flags.Set(name, value); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		_ = Analyzer.Flags.Set(name, prev)
	})
}
