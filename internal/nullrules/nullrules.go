package nullrules

import "fmt"

// Rule represents a nullflow rule code (NUL-series).
type Rule int

const (
	ruleInvalid Rule = iota

	NUL000PossibleNullDereference
	NUL010NullReferenceAssignment
	NUL020NullReferenceArgument
	NUL030NullReferenceReturn
	NUL040NullabilityMismatchInAssignment
	NUL050NullableValueMayBeNull
	NUL060DisallowNullArgument
	NUL070ParameterNotNullOnExit
	NUL071ParameterConditionalNotNullOnExit
	NUL080MemberNotNullOnExit
	NUL090ThrowPossibleNull
	NUL100UnboxPossibleNull
	NUL110NullCheckOnNotNull
	NUL120ExpressionNeverNull
	NUL130NoBestNullability
	NUL900AnalysisIncomplete
)

var ruleNames = map[Rule]string{
	NUL000PossibleNullDereference:           "NUL000: PossibleNullDereference",
	NUL010NullReferenceAssignment:           "NUL010: NullReferenceAssignment",
	NUL020NullReferenceArgument:             "NUL020: NullReferenceArgument",
	NUL030NullReferenceReturn:               "NUL030: NullReferenceReturn",
	NUL040NullabilityMismatchInAssignment:   "NUL040: NullabilityMismatchInAssignment",
	NUL050NullableValueMayBeNull:            "NUL050: NullableValueMayBeNull",
	NUL060DisallowNullArgument:              "NUL060: DisallowNullArgument",
	NUL070ParameterNotNullOnExit:            "NUL070: ParameterNotNullOnExit",
	NUL071ParameterConditionalNotNullOnExit: "NUL071: ParameterConditionalNotNullOnExit",
	NUL080MemberNotNullOnExit:               "NUL080: MemberNotNullOnExit",
	NUL090ThrowPossibleNull:                 "NUL090: ThrowPossibleNull",
	NUL100UnboxPossibleNull:                 "NUL100: UnboxPossibleNull",
	NUL110NullCheckOnNotNull:                "NUL110: NullCheckOnNotNull",
	NUL120ExpressionNeverNull:               "NUL120: ExpressionNeverNull",
	NUL130NoBestNullability:                 "NUL130: NoBestNullability",
	NUL900AnalysisIncomplete:                "NUL900: AnalysisIncomplete",
}

// String returns the canonical code and short name of the rule.
// Example: "NUL000: PossibleNullDereference"
func (r Rule) String() string {
	v, ok := ruleNames[r]
	if !ok {
		return fmt.Sprintf("rule-unknown(%d)", r)
	}

	return v
}

// Code returns the bare code of the rule, "NUL000" for instance.
func (r Rule) Code() string {
	if _, ok := ruleNames[r]; !ok {
		return fmt.Sprintf("NUL?%d", r)
	}
	return ruleNames[r][:6]
}

// Description returns the human-readable explanation of the rule.
func (r Rule) Description() string {
	switch r {
	case NUL000PossibleNullDereference:
		return "A value that may be null is dereferenced."
	case NUL010NullReferenceAssignment:
		return "A value that may be null is stored into a non-nullable location."
	case NUL020NullReferenceArgument:
		return "A value that may be null is passed for a non-nullable parameter."
	case NUL030NullReferenceReturn:
		return "A value that may be null is returned from a function with a non-nullable result."
	case NUL040NullabilityMismatchInAssignment:
		return "Nullability of the assigned value does not match the target type."
	case NUL050NullableValueMayBeNull:
		return "A nullable value type may have no value where its value is required."
	case NUL060DisallowNullArgument:
		return "A value that may be null is passed for a parameter that disallows null."
	case NUL070ParameterNotNullOnExit:
		return "A parameter promised to be not null on exit may be null."
	case NUL071ParameterConditionalNotNullOnExit:
		return "A parameter promised to be not null for this return value may be null."
	case NUL080MemberNotNullOnExit:
		return "A member promised to be not null on exit may be null."
	case NUL090ThrowPossibleNull:
		return "A value that may be null is thrown."
	case NUL100UnboxPossibleNull:
		return "A value that may be null is unboxed into a non-nullable value type."
	case NUL110NullCheckOnNotNull:
		return "A value that is never null is compared with null."
	case NUL120ExpressionNeverNull:
		return "A null-conditional operator is applied to a value that is never null."
	case NUL130NoBestNullability:
		return "Branches of a conditional expression have incompatible nullability."
	case NUL900AnalysisIncomplete:
		return "Nullability analysis was abandoned for the body."
	default:
		return fmt.Sprintf("unknown-rule(%d)", r)
	}
}

// Format renders a short message for the rule with the given arguments.
func (r Rule) Format(args ...any) string {
	switch r {
	case NUL000PossibleNullDereference:
		return fmt.Sprintf("possible null dereference of %s", args...)
	case NUL010NullReferenceAssignment:
		return fmt.Sprintf("possible null value assigned to non-nullable %s", args...)
	case NUL020NullReferenceArgument:
		return fmt.Sprintf("possible null argument for parameter %s of %s", args...)
	case NUL030NullReferenceReturn:
		return fmt.Sprintf("possible null value returned from %s", args...)
	case NUL040NullabilityMismatchInAssignment:
		return fmt.Sprintf("nullability of %s does not match the target type %s", args...)
	case NUL050NullableValueMayBeNull:
		return fmt.Sprintf("nullable value %s may have no value", args...)
	case NUL060DisallowNullArgument:
		return fmt.Sprintf("possible null argument for parameter %s of %s which disallows null", args...)
	case NUL070ParameterNotNullOnExit:
		return fmt.Sprintf("parameter %s must be not null on exit", args...)
	case NUL071ParameterConditionalNotNullOnExit:
		return fmt.Sprintf("parameter %s must be not null when returning %v", args...)
	case NUL080MemberNotNullOnExit:
		return fmt.Sprintf("member %s must be not null on exit", args...)
	case NUL090ThrowPossibleNull:
		return "possible null value thrown"
	case NUL100UnboxPossibleNull:
		return fmt.Sprintf("possible null value unboxed into %s", args...)
	case NUL110NullCheckOnNotNull:
		return fmt.Sprintf("%s is never null", args...)
	case NUL120ExpressionNeverNull:
		return fmt.Sprintf("%s is never null, the null-conditional operator is redundant", args...)
	case NUL130NoBestNullability:
		return fmt.Sprintf("no best nullability for branches of types %s and %s", args...)
	case NUL900AnalysisIncomplete:
		return fmt.Sprintf("nullability analysis of %s abandoned: %v", args...)
	default:
		return r.Description()
	}
}

// IsHidden tells if the rule reports a redundancy rather than a possible failure.
func (r Rule) IsHidden() bool {
	switch r {
	case NUL110NullCheckOnNotNull, NUL120ExpressionNeverNull:
		return true
	default:
		return false
	}
}

// Canonical constructors for readability and stable call sites.

func PossibleNullDereference() Rule   { return NUL000PossibleNullDereference }
func NullReferenceAssignment() Rule   { return NUL010NullReferenceAssignment }
func NullReferenceArgument() Rule     { return NUL020NullReferenceArgument }
func NullReferenceReturn() Rule       { return NUL030NullReferenceReturn }
func NullabilityMismatch() Rule       { return NUL040NullabilityMismatchInAssignment }
func NullableValueMayBeNull() Rule    { return NUL050NullableValueMayBeNull }
func DisallowNullArgument() Rule      { return NUL060DisallowNullArgument }
func ParameterNotNullOnExit() Rule    { return NUL070ParameterNotNullOnExit }
func ParameterNotNullWhenOnExit() Rule {
	return NUL071ParameterConditionalNotNullOnExit
}
func MemberNotNullOnExit() Rule  { return NUL080MemberNotNullOnExit }
func ThrowPossibleNull() Rule    { return NUL090ThrowPossibleNull }
func UnboxPossibleNull() Rule    { return NUL100UnboxPossibleNull }
func NullCheckOnNotNull() Rule   { return NUL110NullCheckOnNotNull }
func ExpressionNeverNull() Rule  { return NUL120ExpressionNeverNull }
func NoBestNullability() Rule    { return NUL130NoBestNullability }
func AnalysisIncomplete() Rule   { return NUL900AnalysisIncomplete }
