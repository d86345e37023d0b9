// Package typedetails implements the field-type algebra shared by the
// reference resolver and the pipeline analyzer, whose filter conditions
// are the only comparisons checked against the comparability matrix:
// a closed set of scalar/edge kinds, the TypeDetails tuple that every ref
// or variable path resolves to, and the comparability matrix that governs
// which operators are legal between a pair of resolved types.
package typedetails

import "fmt"

// ItemType is the closed set of kinds a resolved value can carry.
type ItemType string

const (
	Boolean ItemType = "BOOLEAN"
	Numeric ItemType = "NUMERIC"
	String  ItemType = "STRING"
	Object  ItemType = "OBJECT"
	Null    ItemType = "NULL"
	// Edge marks a value whose ItemTag names the target object-type tag.
	Edge ItemType = "EDGE"
)

// Operator is the closed set of comparison operators usable in a
// checkpoint Comparison or a pipeline filter condition.
type Operator string

const (
	Equals          Operator = "EQUALS"
	DoesNotEqual    Operator = "DOES_NOT_EQUAL"
	GreaterThan     Operator = "GREATER_THAN"
	LessThan        Operator = "LESS_THAN"
	GreaterOrEqual  Operator = "GREATER_THAN_OR_EQUAL_TO"
	LessOrEqual     Operator = "LESS_THAN_OR_EQUAL_TO"
	Contains        Operator = "CONTAINS"
	DoesNotContain  Operator = "DOES_NOT_CONTAIN"
	OneOf           Operator = "ONE_OF"
	NoneOf          Operator = "NONE_OF"
	ContainsAnyOf   Operator = "CONTAINS_ANY_OF"
	ContainsNoneOf  Operator = "CONTAINS_NONE_OF"
	IsSubsetOf      Operator = "IS_SUBSET_OF"
	IsSupersetOf    Operator = "IS_SUPERSET_OF"
)

// TypeDetails is the tuple every ref, variable path, or literal resolves
// to: whether the value is a list, its item kind, and, for EDGE/OBJECT
// items, the object-type tag it carries.
type TypeDetails struct {
	IsList   bool
	ItemType ItemType
	ItemTag  string // object-type tag, set only when ItemType is Edge or Object
}

// Listified returns a copy of t marking it as a list. Reference
// resolution and the spawn-source check do not call it, so a ref to a
// promise fulfilled inside an out-of-scope thread group is not listified.
func (t TypeDetails) Listified() TypeDetails {
	t.IsList = true
	return t
}

// Delistified returns a copy of t with the list marker removed. Used for
// $_item inside a filter and for a thread-group loop variable's element
// type.
func (t TypeDetails) Delistified() TypeDetails {
	t.IsList = false
	return t
}

// String renders the type for diagnostic messages, e.g. "NUMERIC_LIST" or
// "EDGE(Invoice)".
func (t TypeDetails) String() string {
	base := string(t.ItemType)
	if t.ItemTag != "" {
		base = fmt.Sprintf("%s(%s)", base, t.ItemTag)
	}
	if t.IsList {
		return base + "_LIST"
	}
	return base
}

// FromFieldTypeName maps a closed-set object-type field_type string (or
// pipeline-variable/output "type" string) to the TypeDetails it denotes.
// EDGE/EDGE_COLLECTION carry no tag here; callers that know the attribute's
// object_type should set ItemTag themselves.
func FromFieldTypeName(fieldType string) TypeDetails {
	switch fieldType {
	case "BOOLEAN_LIST":
		return TypeDetails{IsList: true, ItemType: Boolean}
	case "NUMERIC_LIST":
		return TypeDetails{IsList: true, ItemType: Numeric}
	case "STRING_LIST":
		return TypeDetails{IsList: true, ItemType: String}
	case "EDGE_COLLECTION":
		return TypeDetails{IsList: true, ItemType: Edge}
	case "BOOLEAN":
		return TypeDetails{ItemType: Boolean}
	case "NUMERIC":
		return TypeDetails{ItemType: Numeric}
	case "STRING":
		return TypeDetails{ItemType: String}
	case "EDGE":
		return TypeDetails{ItemType: Edge}
	default:
		return TypeDetails{ItemType: Null}
	}
}

// Equal reports whether two TypeDetails values describe the same shape.
func (t TypeDetails) Equal(o TypeDetails) bool {
	return t.IsList == o.IsList && t.ItemType == o.ItemType && t.ItemTag == o.ItemTag
}

// scalarOperators lists the operators legal between two scalars of the
// same ItemType, not counting list-forming operators.
var scalarOperators = map[ItemType]map[Operator]bool{
	Boolean: {Equals: true, DoesNotEqual: true},
	Numeric: {
		Equals: true, DoesNotEqual: true,
		GreaterThan: true, LessThan: true,
		GreaterOrEqual: true, LessOrEqual: true,
	},
	String: {
		Equals: true, DoesNotEqual: true,
		Contains: true, DoesNotContain: true,
		OneOf: true, NoneOf: true,
	},
}

// listFormingOperators require at least one operand to be a list.
var listFormingOperators = map[Operator]bool{
	ContainsAnyOf:  true,
	ContainsNoneOf: true,
	IsSubsetOf:     true,
	IsSupersetOf:   true,
}

// edgeOperators is the set legal between two single EDGE operands.
//
// EDGE supports identity equality only, not ordering or containment.
var edgeOperators = map[Operator]bool{
	Equals:       true,
	DoesNotEqual: true,
}

// edgeCollectionOperators is the set legal when at least one operand is
// an EDGE_COLLECTION (IsList + ItemType Edge) being compared against a
// single EDGE or another EDGE_COLLECTION of the same tag.
var edgeCollectionOperators = map[Operator]bool{
	Contains:       true,
	DoesNotContain: true,
	ContainsAnyOf:  true,
	ContainsNoneOf: true,
	IsSubsetOf:     true,
	IsSupersetOf:   true,
}

// Comparable reports whether op is a legal comparison operator between
// left and right.
func Comparable(left, right TypeDetails, op Operator) bool {
	if left.ItemType == Edge || right.ItemType == Edge {
		return edgeComparable(left, right, op)
	}

	if left.IsList || right.IsList {
		return listComparable(left, right, op)
	}

	if left.ItemType != right.ItemType {
		return false
	}
	return scalarOperators[left.ItemType][op]
}

func edgeComparable(left, right TypeDetails, op Operator) bool {
	if left.ItemTag != right.ItemTag {
		return false
	}
	if left.IsList || right.IsList {
		return edgeCollectionOperators[op]
	}
	return edgeOperators[op]
}

func listComparable(left, right TypeDetails, op Operator) bool {
	leftItem, rightItem := left.ItemType, right.ItemType
	if leftItem != rightItem {
		return false
	}
	if listFormingOperators[op] {
		return true
	}
	// One side is a list, the other a scalar item, compared with CONTAINS
	// family: allowed only when the list side carries the scalar item type.
	if op == Contains || op == DoesNotContain {
		return left.IsList != right.IsList
	}
	return false
}
