package config

// Functions known to stop the flow of their caller.
var predefinedNoReturn = []NoReturnSpec{
	// Stdlib.
	{Ref: Builtin("panic"), Kind: NoReturnPanic},
	{Ref: Reference{Package: "os", Name: "Exit"}, Kind: NoReturnExit},
	{Ref: Reference{Package: "runtime", Name: "Goexit"}, Kind: NoReturnExit},
	{Ref: Reference{Package: "log", Name: "Fatal"}, Kind: NoReturnExit},
	{Ref: Reference{Package: "log", Name: "Fatalf"}, Kind: NoReturnExit},
	{Ref: Reference{Package: "log", Name: "Fatalln"}, Kind: NoReturnExit},
	{Ref: Reference{Package: "log", Name: "Panic"}, Kind: NoReturnExit},
	{Ref: Reference{Package: "log", Name: "Panicf"}, Kind: NoReturnExit},
	{Ref: Reference{Package: "log", Name: "Panicln"}, Kind: NoReturnExit},
	{Ref: Reference{Package: "log", Type: "Logger", Name: "Fatal"}, Kind: NoReturnExit},
	{Ref: Reference{Package: "log", Type: "Logger", Name: "Fatalf"}, Kind: NoReturnExit},
	{Ref: Reference{Package: "log", Type: "Logger", Name: "Fatalln"}, Kind: NoReturnExit},
	{Ref: Reference{Package: "testing", Type: "T", Name: "Fatal"}, Kind: NoReturnExit},
	{Ref: Reference{Package: "testing", Type: "T", Name: "Fatalf"}, Kind: NoReturnExit},
	{Ref: Reference{Package: "testing", Type: "T", Name: "FailNow"}, Kind: NoReturnExit},
	{Ref: Reference{Package: "testing", Type: "T", Name: "Skip"}, Kind: NoReturnExit},
	{Ref: Reference{Package: "testing", Type: "T", Name: "Skipf"}, Kind: NoReturnExit},
	{Ref: Reference{Package: "testing", Type: "T", Name: "SkipNow"}, Kind: NoReturnExit},
	{Ref: Reference{Package: "testing", Type: "B", Name: "Fatal"}, Kind: NoReturnExit},
	{Ref: Reference{Package: "testing", Type: "B", Name: "Fatalf"}, Kind: NoReturnExit},
	{Ref: Reference{Package: "testing", Type: "B", Name: "FailNow"}, Kind: NoReturnExit},

	// Zap.
	{Ref: Reference{Package: "go.uber.org/zap", Type: "Logger", Name: "Panic"}, Kind: NoReturnExit},
	{Ref: Reference{Package: "go.uber.org/zap", Type: "Logger", Name: "Fatal"}, Kind: NoReturnExit},
	{Ref: Reference{Package: "go.uber.org/zap", Type: "SugaredLogger", Name: "Panicf"}, Kind: NoReturnExit},
	{Ref: Reference{Package: "go.uber.org/zap", Type: "SugaredLogger", Name: "Fatalf"}, Kind: NoReturnExit},

	// Mine.
	{Ref: Reference{Package: "github.com/sirkon/message", Name: "Fatal"}, Kind: NoReturnExit},
	{Ref: Reference{Package: "github.com/sirkon/message", Name: "Fatalf"}, Kind: NoReturnExit},
	{Ref: Reference{Package: "github.com/sirkon/message", Name: "Critical"}, Kind: NoReturnExit},
	{Ref: Reference{Package: "github.com/sirkon/message", Name: "Criticalf"}, Kind: NoReturnExit},
}

// Error constructors never return nil. Wrappers like pkg/errors.Wrap are not
// here: they return nil for a nil error.
var predefinedNonNilResults = []Reference{
	{Package: "errors", Name: "New"},
	{Package: "fmt", Name: "Errorf"},
	{Package: "golang.org/x/xerrors", Name: "New"},
	{Package: "golang.org/x/xerrors", Name: "Errorf"},
	{Package: "github.com/pkg/errors", Name: "New"},
	{Package: "github.com/pkg/errors", Name: "Errorf"},
	{Package: "github.com/sirkon/errors", Name: "New"},
	{Package: "github.com/sirkon/errors", Name: "Newf"},
	{Package: "context", Name: "Background"},
	{Package: "context", Name: "TODO"},
}

// Lookups reporting absence with nil.
var predefinedNilableResults = []Reference{
	{Package: "errors", Name: "Unwrap"},
	{Package: "flag", Name: "Lookup"},
	{Package: "runtime", Name: "FuncForPC"},
	{Package: "reflect", Name: "TypeOf"},
	{Package: "context", Type: "Context", Name: "Err"},
}

// Context derivation panics on a nil parent.
var predefinedNonNilParams = []ParamSpec{
	{Ref: Reference{Package: "context", Name: "WithCancel"}, Params: []string{"parent"}},
	{Ref: Reference{Package: "context", Name: "WithCancelCause"}, Params: []string{"parent"}},
	{Ref: Reference{Package: "context", Name: "WithDeadline"}, Params: []string{"parent"}},
	{Ref: Reference{Package: "context", Name: "WithTimeout"}, Params: []string{"parent"}},
	{Ref: Reference{Package: "context", Name: "WithValue"}, Params: []string{"parent"}},
	{Ref: Reference{Package: "context", Name: "WithoutCancel"}, Params: []string{"parent"}},
}
