// Package nullrules defines the canonical NUL-series diagnostic codes emitted
// by the nullability walker.
//
// Each rule is a stable numeric and textual identity of one kind of finding,
// so diagnostics can be filtered, suppressed and compared across runs
// without depending on message text.
//
// # Structure
//
// Rule codes follow the format “NUL<NNN>: <Name>” and are grouped by area:
//
//	000–049  Dereferences and assignments of maybe-null values
//	050–099  Nullable value types, annotations and postconditions
//	100–149  Conversions and hidden (informational) findings
//	900–999  Analysis limits
//
// Example:
//
//	nullrules.NUL000PossibleNullDereference.String() → "NUL000: PossibleNullDereference"
//	nullrules.NUL000PossibleNullDereference.Format("s") → "possible null dereference of s"
//
// # Notes
//
//   - Rule identifiers are stable; never renumber existing codes.
//   - Hidden rules describe redundant checks, front ends usually drop them.
package nullrules
