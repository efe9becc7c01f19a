package rules

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/nexerp-ops/procmon-backend-go/internal/database/models"
)

// Event is an opaque key/value signal submitted for evaluation. Its schema is
// open; conditions reference whatever fields they need.
type Event map[string]interface{}

// MatchCondition applies a single field/operator/threshold condition to an
// event. Evaluation is fail-closed: a missing field, an unknown operator or
// any comparison fault yields no-match, never an error.
func MatchCondition(event Event, cond models.RuleCondition) bool {
	actual, ok := event[cond.Field]
	if !ok {
		return false
	}

	switch cond.Operator {
	case "gt", "gte", "lt", "lte":
		a, err := toFloat(actual)
		if err != nil {
			return false
		}
		b, err := toFloat(cond.Operand)
		if err != nil {
			return false
		}
		switch cond.Operator {
		case "gt":
			return a > b
		case "gte":
			return a >= b
		case "lt":
			return a < b
		default:
			return a <= b
		}
	case "eq":
		return valuesEqual(actual, cond.Operand)
	case "neq":
		return !valuesEqual(actual, cond.Operand)
	case "contains":
		return strings.Contains(stringify(actual), stringify(cond.Operand))
	default:
		return false
	}
}

// valuesEqual compares numerically when both sides convert, otherwise by
// stringified form so "5" and 5 coming off JSON still compare equal.
func valuesEqual(a, b interface{}) bool {
	fa, errA := toFloat(a)
	fb, errB := toFloat(b)
	if errA == nil && errB == nil {
		return fa == fb
	}
	return stringify(a) == stringify(b)
}

func toFloat(value interface{}) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	case string:
		return strconv.ParseFloat(v, 64)
	default:
		return 0, fmt.Errorf("cannot convert %T to float64", value)
	}
}

func stringify(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		// Match JSON rendering of whole numbers: 30 not 30.000000.
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", value)
	}
}

// FieldValue returns the numeric value of an event field, zero when the field
// is absent or not numeric.
func FieldValue(event Event, field string) float64 {
	raw, ok := event[field]
	if !ok {
		return 0
	}
	v, err := toFloat(raw)
	if err != nil {
		return 0
	}
	return v
}
