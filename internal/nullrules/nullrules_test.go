package nullrules

import (
	"strings"
	"testing"
)

func TestRuleCodesAreUnique(t *testing.T) {
	seen := map[string]Rule{}
	for r := ruleInvalid + 1; r <= NUL900AnalysisIncomplete; r++ {
		code := r.Code()
		if !strings.HasPrefix(code, "NUL") {
			t.Fatalf("rule %d has no code", r)
		}
		if prev, ok := seen[code]; ok {
			t.Fatalf("rules %d and %d share code %s", prev, r, code)
		}
		seen[code] = r

		if !strings.HasPrefix(r.String(), code+": ") {
			t.Errorf("%s: name does not start with its code", r)
		}
		if strings.HasPrefix(r.Description(), "unknown") {
			t.Errorf("%s: no description", r)
		}
	}
}

func TestRuleFormat(t *testing.T) {
	tests := []struct {
		name string
		rule Rule
		args []any
		want string
	}{
		{
			name: "dereference",
			rule: PossibleNullDereference(),
			args: []any{"s"},
			want: "possible null dereference of s",
		},
		{
			name: "argument",
			rule: NullReferenceArgument(),
			args: []any{"x", "Use"},
			want: "possible null argument for parameter x of Use",
		},
		{
			name: "conditional exit",
			rule: ParameterNotNullWhenOnExit(),
			args: []any{"value", true},
			want: "parameter value must be not null when returning true",
		},
		{
			name: "throw takes no arguments",
			rule: ThrowPossibleNull(),
			want: "possible null value thrown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rule.Format(tt.args...); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUnknownRule(t *testing.T) {
	r := Rule(1000)
	if got := r.String(); got != "rule-unknown(1000)" {
		t.Errorf("unexpected name %q", got)
	}
	if r.IsHidden() {
		t.Error("unknown rule must not be hidden")
	}
	if !NullCheckOnNotNull().IsHidden() {
		t.Error("null check on not null must be hidden")
	}
}
