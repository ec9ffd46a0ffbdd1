package predicate

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/leengari/parquery/internal/domain/errors"
	"github.com/leengari/parquery/internal/domain/schema"
)

// allowedOperators is the full leaf operator vocabulary, including the
// accepted aliases. Reported verbatim on UnsupportedOperator failures.
var allowedOperators = []string{
	"equal", "not_equal", "less", "less_equal", "greater", "greater_equal",
	"in", "is_in", "is_null", "is_not_null", "is_valid",
}

// Compile parses a JSON filter expression and binds it to the table
// schema, validating column references, operator names and literal types.
//
// Grammar:
//
//	{"column": c, "op": o, "value": v}
//	{"column": c, "op": "in", "values": [...]}
//	{"column": c, "op": "is_null" | "is_not_null" | "is_valid"}
//	{"and": [...]}  {"or": [...]}  {"not": <predicate>}
//
// Operator names are case-insensitive.
func Compile(filterJSON []byte, meta *schema.TableMetadata) (Predicate, error) {
	var tree interface{}
	if err := json.Unmarshal(filterJSON, &tree); err != nil {
		return nil, errors.NewFilterSyntax("malformed filter JSON", err)
	}
	return compileNode(tree, meta)
}

func compileNode(node interface{}, meta *schema.TableMetadata) (Predicate, error) {
	obj, ok := node.(map[string]interface{})
	if !ok {
		return nil, errors.NewFilterSyntax(
			fmt.Sprintf("filter node must be a JSON object, got %T", node), nil)
	}

	// Compound operators take precedence, matching the shape of the
	// grammar: a compound node has no "column" key.
	if children, ok := lookup(obj, "and"); ok {
		return compileCompound(OpAnd, children, meta)
	}
	if children, ok := lookup(obj, "or"); ok {
		return compileCompound(OpOr, children, meta)
	}
	if child, ok := lookup(obj, "not"); ok {
		inner, err := compileNode(child, meta)
		if err != nil {
			return nil, err
		}
		return &Compound{Op: OpNot, Children: []Predicate{inner}}, nil
	}

	return compileLeaf(obj, meta)
}

func compileCompound(op LogicalOp, raw interface{}, meta *schema.TableMetadata) (Predicate, error) {
	list, ok := raw.([]interface{})
	if !ok {
		return nil, errors.NewFilterSyntax(
			fmt.Sprintf("%q expects an array of predicates", op), nil)
	}
	if len(list) == 0 {
		return nil, errors.NewFilterSyntax(
			fmt.Sprintf("%q requires at least one child predicate", op), nil)
	}

	children := make([]Predicate, 0, len(list))
	for _, item := range list {
		child, err := compileNode(item, meta)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return &Compound{Op: op, Children: children}, nil
}

func compileLeaf(obj map[string]interface{}, meta *schema.TableMetadata) (Predicate, error) {
	rawColumn, hasColumn := obj["column"]
	rawOp, hasOp := obj["op"]
	if !hasColumn || !hasOp {
		return nil, errors.NewFilterSyntax(
			"leaf predicate requires \"column\" and \"op\" keys", nil)
	}

	columnName, ok := rawColumn.(string)
	if !ok {
		return nil, errors.NewFilterSyntax("\"column\" must be a string", nil)
	}
	opName, ok := rawOp.(string)
	if !ok {
		return nil, errors.NewFilterSyntax("\"op\" must be a string", nil)
	}

	col := meta.Column(columnName)
	if col == nil {
		return nil, errors.NewUnknownColumn(columnName, meta.ColumnNames())
	}

	switch strings.ToLower(opName) {
	case "is_null":
		return &NullCheck{Column: col.Name, WantNull: true}, nil

	case "is_not_null", "is_valid":
		return &NullCheck{Column: col.Name, WantNull: false}, nil

	case "in", "is_in":
		rawValues, ok := obj["values"]
		if !ok {
			return nil, errors.NewFilterSyntax(
				"\"in\" predicate requires a \"values\" array", nil)
		}
		list, ok := rawValues.([]interface{})
		if !ok {
			return nil, errors.NewFilterSyntax("\"values\" must be an array", nil)
		}
		values := make([]interface{}, 0, len(list))
		for _, raw := range list {
			v, err := coerceLiteral(raw, col)
			if err != nil {
				return nil, err
			}
			values = append(values, v)
		}
		return &SetMembership{Column: col.Name, Values: values}, nil

	case "equal", "not_equal", "less", "less_equal", "greater", "greater_equal":
		rawValue, ok := obj["value"]
		if !ok {
			return nil, errors.NewFilterSyntax(
				fmt.Sprintf("operator %q requires a \"value\" key", opName), nil)
		}
		v, err := coerceLiteral(rawValue, col)
		if err != nil {
			return nil, err
		}
		return &Comparison{
			Column: col.Name,
			Op:     CompareOp(strings.ToLower(opName)),
			Value:  v,
		}, nil

	default:
		return nil, errors.NewUnsupportedOperator(opName, allowedOperators)
	}
}

// coerceLiteral converts a JSON literal into the column's logical type.
func coerceLiteral(raw interface{}, col *schema.Column) (interface{}, error) {
	if raw == nil {
		return nil, errors.NewTypeMismatch(col.Name, raw,
			string(col.Type)+" (use is_null to test nullness)")
	}

	switch col.Type {
	case schema.TypeInteger:
		if n, ok := raw.(float64); ok && n == float64(int64(n)) {
			return int64(n), nil
		}
	case schema.TypeFloat:
		if n, ok := raw.(float64); ok {
			return n, nil
		}
	case schema.TypeString:
		if s, ok := raw.(string); ok {
			return s, nil
		}
	case schema.TypeBoolean:
		if b, ok := raw.(bool); ok {
			return b, nil
		}
	case schema.TypeTimestamp:
		if s, ok := raw.(string); ok {
			if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
				return ts.UTC(), nil
			}
		}
	}

	return nil, errors.NewTypeMismatch(col.Name, raw, string(col.Type))
}

// lookup does a case-insensitive key search for the logical operator
// keys, so "AND" is accepted like "and". Structural keys (column, op,
// value, values) are matched exactly; only operator names are folded.
func lookup(obj map[string]interface{}, key string) (interface{}, bool) {
	if v, ok := obj[key]; ok {
		return v, true
	}
	for k, v := range obj {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}
