package config

import (
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sirkon/nullflow/internal/bound"
)

func TestReferenceText(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Reference
		text    string
		wantErr bool
	}{
		{
			name:  "function",
			input: `"os".Exit`,
			want:  Reference{Package: "os", Name: "Exit"},
		},
		{
			name:  "method",
			input: ` "github.com/acme/store".Store.Get `,
			want:  Reference{Package: "github.com/acme/store", Type: "Store", Name: "Get"},
		},
		{
			name:  "pointer receiver",
			input: `"github.com/acme/store".(*Store).Get`,
			want:  Reference{Package: "github.com/acme/store", Type: "Store", Name: "Get"},
			text:  `"github.com/acme/store".Store.Get`,
		},
		{
			name:  "value receiver",
			input: `"time".(Time).Unix`,
			want:  Reference{Package: "time", Type: "Time", Name: "Unix"},
			text:  `"time".Time.Unix`,
		},
		{
			name:  "builtin",
			input: "panic",
			want:  Reference{Package: "builtin", Name: "panic"},
		},
		{
			name:  "raw package path",
			input: "`os`.Exit",
			want:  Reference{Package: "os", Name: "Exit"},
			text:  `"os".Exit`,
		},
		{
			name:    "receiver without method",
			input:   `"os".(*File)`,
			wantErr: true,
		},
		{
			name:    "qualified receiver",
			input:   `"os".(*os.File).Close`,
			wantErr: true,
		},
		{
			name:    "empty package",
			input:   `"".Exit`,
			wantErr: true,
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
		{
			name:    "unquoted package",
			input:   "os.Exit",
			wantErr: true,
		},
		{
			name:    "unterminated package",
			input:   `"os.Exit`,
			wantErr: true,
		},
		{
			name:    "no name",
			input:   `"os"`,
			wantErr: true,
		},
		{
			name:    "too deep",
			input:   `"os".A.B.C`,
			wantErr: true,
		},
		{
			name:    "bad identifier",
			input:   `"os".1Exit`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Reference
			err := got.UnmarshalText([]byte(tt.input))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("error expected, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}

			text, err := got.MarshalText()
			if err != nil {
				t.Fatal(err)
			}
			want := tt.text
			if want == "" {
				want = strings.TrimSpace(tt.input)
			}
			if string(text) != want {
				t.Errorf("marshal: got %s, want %s", text, want)
			}
		})
	}
}

func TestFuncReference(t *testing.T) {
	const src = `package store

type Store[T any] struct{}

func (s *Store[T]) Get() *T { return nil }

func Open() *Store[int] { return nil }
`
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "store.go", src, 0)
	if err != nil {
		t.Fatal(err)
	}
	conf := types.Config{Importer: importer.Default()}
	pkg, err := conf.Check("example.com/store", fset, []*ast.File{file}, nil)
	if err != nil {
		t.Fatal(err)
	}

	open := pkg.Scope().Lookup("Open").(*types.Func)
	if got := FuncReference(open).String(); got != `"example.com/store".Open` {
		t.Errorf("unexpected function reference %s", got)
	}

	named := pkg.Scope().Lookup("Store").Type().(*types.Named)
	if got := FuncReference(named.Method(0)).String(); got != `"example.com/store".Store.Get` {
		t.Errorf("unexpected method reference %s", got)
	}
}

func TestRead(t *testing.T) {
	const input = `
no-return:
  - ref: '"github.com/acme/log".Die'
    kind: exit
non-nil-results:
  - '"context".Context.Err'
nilable-results:
  - '"github.com/acme/store".Lookup'
nilable-params:
  - ref: '"github.com/acme/store".Store.Get'
    params: [opts]
`
	c, err := Read(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	a := c.Annotations()

	kind, ok := a.NoReturn(Reference{Package: "github.com/acme/log", Name: "Die"})
	if !ok || kind != NoReturnExit {
		t.Errorf("configured no-return function is lost: %v %v", kind, ok)
	}
	if kind, ok := a.NoReturn(Builtin("panic")); !ok || kind != NoReturnPanic {
		t.Errorf("built-in panic is lost: %v %v", kind, ok)
	}

	checks := []struct {
		name string
		got  bound.FlowAnnotation
		want bound.FlowAnnotation
	}{
		{
			name: "overridden built-in",
			got:  a.Result(Reference{Package: "context", Type: "Context", Name: "Err"}),
			want: bound.NotNull,
		},
		{
			name: "nilable result",
			got:  a.Result(Reference{Package: "github.com/acme/store", Name: "Lookup"}),
			want: bound.MaybeNull,
		},
		{
			name: "no-return result",
			got:  a.Result(Reference{Package: "os", Name: "Exit"}),
			want: bound.DoesNotReturn,
		},
		{
			name: "nilable param",
			got:  a.Param(Reference{Package: "github.com/acme/store", Type: "Store", Name: "Get"}, "opts"),
			want: bound.AllowNull,
		},
		{
			name: "built-in non-nil param",
			got:  a.Param(Reference{Package: "context", Name: "WithCancel"}, "parent"),
			want: bound.DisallowNull,
		},
		{
			name: "unknown param",
			got:  a.Param(Reference{Package: "context", Name: "WithCancel"}, "other"),
			want: 0,
		},
	}
	for _, c := range checks {
		t.Run(c.name, func(t *testing.T) {
			if c.got != c.want {
				t.Errorf("got %s, want %s", c.got, c.want)
			}
		})
	}
}

func TestReadNoDefaults(t *testing.T) {
	const input = `
no-defaults: true
non-nil-results:
  - '"github.com/acme/store".Open'
`
	c, err := Read(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}

	want := &Config{
		NoDefaults:    true,
		NonNilResults: []Reference{{Package: "github.com/acme/store", Name: "Open"}},
	}
	if diff := cmp.Diff(want, c); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{
			name:  "unknown field",
			input: "no-such-section: []\n",
		},
		{
			name:  "unknown kind",
			input: "no-return:\n  - ref: '\"os\".Exit'\n    kind: crash\n",
		},
		{
			name:  "missing kind",
			input: "no-return:\n  - ref: '\"os\".Exit'\n",
		},
		{
			name:  "conflicting results",
			input: "non-nil-results: ['\"a\".F']\nnilable-results: ['\"a\".F']\n",
		},
		{
			name:  "no params",
			input: "non-nil-params:\n  - ref: '\"a\".F'\n",
		},
		{
			name:  "bad reference",
			input: "non-nil-results: [a.F]\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Read(strings.NewReader(tt.input)); err == nil {
				t.Error("error expected")
			}
		})
	}
}

func TestReadEmpty(t *testing.T) {
	c, err := Read(strings.NewReader(""))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(Default(), c); diff != "" {
		t.Errorf("empty config must be the default one (-want +got):\n%s", diff)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(t.TempDir() + "/nullflow.yaml"); err == nil {
		t.Error("error expected for a missing file")
	}
}
