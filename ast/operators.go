package ast

// Comparison
const (
	OpEqual              = "="
	OpNotEqual           = "<>"
	OpLessThan           = "<"
	OpLessThanOrEqual    = "<="
	OpGreaterThan        = ">"
	OpGreaterThanOrEqual = ">="
)

// Logical
const (
	OpAnd = "AND"
	OpOr  = "OR"
	OpNot = "NOT"
)

// Pattern matching
const (
	OpLike     = "LIKE"
	OpNotLike  = "NOT LIKE"
	OpILike    = "ILIKE"
	OpNotILike = "NOT ILIKE"
)

// Sets and subqueries
const (
	OpIn        = "IN"
	OpNotIn     = "NOT IN"
	OpExists    = "EXISTS"
	OpNotExists = "NOT EXISTS"
)

// Null checks
const (
	OpIsNull    = "IS NULL"
	OpIsNotNull = "IS NOT NULL"
)

// Ranges
const (
	OpBetween    = "BETWEEN"
	OpNotBetween = "NOT BETWEEN"
)

// Arithmetic
const (
	OpAdd      = "+"
	OpSubtract = "-"
	OpMultiply = "*"
	OpDivide   = "/"
)

// IsLogical reports whether op joins two conditions.
func IsLogical(op string) bool {
	return op == OpAnd || op == OpOr
}
