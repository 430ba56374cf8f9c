package workflow

import (
	"fmt"
	"strconv"
	"strings"

	apperrors "github.com/talio-hq/talio/internal/errors"
)

// Operator compares a payload field against a condition value.
type Operator string

const (
	// OpEqual matches when the field equals the value.
	OpEqual Operator = "eq"
	// OpNotEqual matches when the field differs from the value.
	OpNotEqual Operator = "neq"
	// OpGreaterThan matches when both sides parse as numbers and field > value.
	OpGreaterThan Operator = "gt"
	// OpGreaterOrEqual matches numerically on field >= value.
	OpGreaterOrEqual Operator = "gte"
	// OpLessThan matches numerically on field < value.
	OpLessThan Operator = "lt"
	// OpLessOrEqual matches numerically on field <= value.
	OpLessOrEqual Operator = "lte"
	// OpContains matches on substring containment, case-insensitive.
	OpContains Operator = "contains"
	// OpChangedTo matches when the field equals the value and the payload's
	// previous_<leaf> field differs from it.
	OpChangedTo Operator = "changed_to"
)

var operators = map[Operator]bool{
	OpEqual:          true,
	OpNotEqual:       true,
	OpGreaterThan:    true,
	OpGreaterOrEqual: true,
	OpLessThan:       true,
	OpLessOrEqual:    true,
	OpContains:       true,
	OpChangedTo:      true,
}

// Condition is one predicate over the event payload.
type Condition struct {
	Field string   `json:"field"`
	Op    Operator `json:"op"`
	Value string   `json:"value"`
}

// Validate checks the condition shape.
func (c Condition) Validate() error {
	if strings.TrimSpace(c.Field) == "" {
		return apperrors.New(apperrors.CodeWorkflowInvalidOp, "condition field is required")
	}
	if !operators[c.Op] {
		return apperrors.Newf(apperrors.CodeWorkflowInvalidOp, "unknown condition operator %q", string(c.Op))
	}
	return nil
}

// Evaluate applies the condition to a decoded event payload.
// Missing fields never match.
func (c Condition) Evaluate(payload map[string]any) bool {
	raw, ok := lookupField(payload, c.Field)
	if !ok {
		return false
	}
	fieldValue := stringify(raw)

	switch c.Op {
	case OpEqual:
		return fieldValue == c.Value
	case OpNotEqual:
		return fieldValue != c.Value
	case OpContains:
		return strings.Contains(strings.ToLower(fieldValue), strings.ToLower(c.Value))
	case OpGreaterThan, OpGreaterOrEqual, OpLessThan, OpLessOrEqual:
		left, leftErr := strconv.ParseFloat(fieldValue, 64)
		right, rightErr := strconv.ParseFloat(strings.TrimSpace(c.Value), 64)
		if leftErr != nil || rightErr != nil {
			return false
		}
		switch c.Op {
		case OpGreaterThan:
			return left > right
		case OpGreaterOrEqual:
			return left >= right
		case OpLessThan:
			return left < right
		default:
			return left <= right
		}
	case OpChangedTo:
		if fieldValue != c.Value {
			return false
		}
		previous, ok := lookupField(payload, previousFieldPath(c.Field))
		if !ok {
			// No previous value recorded counts as a change.
			return true
		}
		return stringify(previous) != c.Value
	default:
		return false
	}
}

// lookupField resolves a dot-notation path inside nested payload maps.
func lookupField(payload map[string]any, path string) (any, bool) {
	parts := strings.Split(strings.TrimSpace(path), ".")
	var current any = payload
	for _, part := range parts {
		node, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = node[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// previousFieldPath rewrites the last path segment to its previous_ twin.
func previousFieldPath(path string) string {
	parts := strings.Split(strings.TrimSpace(path), ".")
	parts[len(parts)-1] = "previous_" + parts[len(parts)-1]
	return strings.Join(parts, ".")
}

// stringify renders payload values the way JSON decoding produced them.
func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
