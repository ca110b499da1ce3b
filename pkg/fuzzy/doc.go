// Package fuzzy implements the t-norm operators that bound fuzzy edge
// memberships, together with the clamping rules for membership degrees.
//
// # T-norms
//
//	min    minimum          min(x, y)
//	luk    Łukasiewicz      max(x + y - 1, 0)
//	prod   product          x * y
//	drast  drastic product  min(x, y) if max(x, y) == 1, else 0
//
// The identifiers are part of the analysis service wire contract.
//
// # Clamping
//
// Membership degrees are always corrected rather than rejected: values
// below 0 become 0, values above 1 become 1 and NaN becomes 0. Only text
// that cannot be read as a number is refused (see [ParseMembership]).
package fuzzy
