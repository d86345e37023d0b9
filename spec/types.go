// Package spec implements the declarative spec interpreter: a tagged
// union of spec shapes (Scalar, Enum, Array, Object, Ref, MultiType,
// SpecByName, AnyOfSpecs), conditional override evaluation, and the
// generic walk that validates an untyped document value against a spec
// node. This is the validator's inner core.
package spec

// Spec is the sealed set of shapes a document node can be validated
// against. Each concrete type below implements it.
type Spec interface {
	isSpec()
}

// ScalarKind is the closed set of scalar spec kinds.
type ScalarKind string

const (
	KindString  ScalarKind = "string"
	KindInteger ScalarKind = "integer"
	KindDecimal ScalarKind = "decimal"
	KindBoolean ScalarKind = "boolean"
	KindScalar  ScalarKind = "scalar" // any one of the above
	KindAny     ScalarKind = "any"
)

// ScalarSpec validates a single leaf value.
type ScalarSpec struct {
	Kind          ScalarKind
	Patterns      []string // regexes; value must match at least one, if any given
	Nullable      bool
	ExpectedValue any // when non-nil, value must equal this exactly
}

func (ScalarSpec) isSpec() {}

// EnumSpec validates that a value is a member of a fixed set.
type EnumSpec struct {
	Values []any
}

func (EnumSpec) isSpec() {}

// ArrayConstraints are the constraints an Array spec may declare.
type ArrayConstraints struct {
	MinLength        int
	Distinct         bool     // every element must differ from every other
	Unique           []string // field names that must be unique across elements
	UniqueComposites [][]string
	UniqueIfNotNull  []string
}

// ArraySpec validates a list, each element checked against Values.
type ArraySpec struct {
	Values      Spec
	Constraints ArrayConstraints
}

func (ArraySpec) isSpec() {}

// ObjectConstraints are the meta-constraints an Object spec may declare.
type ObjectConstraints struct {
	Optional            []string // property names not required even if absent
	ForbiddenProperties  []string
	ForbiddenReason      string
	MutuallyExclusive    [][]string // each group: exactly one must be present
	ValidationFunctions  []string   // names looked up in the Validator registry
	Unique               []string   // sibling-level uniqueness, rarely used at object scope
}

// RefConfig identifies the collection this object-spec's entity lives in,
// for global-ref lookup by id or alias.
type RefConfig struct {
	Collection string // dotted path under root, e.g. "actions"
	IDField    string // defaults to "id"
	AliasField string // e.g. "alias"; empty when this kind has no alias form
}

// Trigger is one condition an `if` entry or `switch` case inspects.
type Trigger struct {
	Path     string // dotted path relative to the object being validated
	Operator TriggerOperator
	Value    any
}

// TriggerOperator is the closed set of condition operators a Trigger may use.
type TriggerOperator string

const (
	OpContainsKey  TriggerOperator = "CONTAINS_KEY"
	OpEquals       TriggerOperator = "EQUALS"
	OpGreaterThan  TriggerOperator = "GREATER_THAN"
)

// Override is what a matched `if`/`switch` entry merges into the spec
// being evaluated.
type Override struct {
	AddProperties      map[string]Spec
	OverrideProperties map[string]Spec
	AddConstraints     *ObjectConstraints
}

// Conditional is one `if` entry: when all Triggers hold, Override applies.
type Conditional struct {
	Triggers []Trigger
	Override Override
}

// Switch dispatches on the value at Path, applying Cases[value].
type Switch struct {
	Path  string
	Cases map[string]Override
}

// ObjectSpec validates a map with named properties, meta-constraints, and
// optional conditional overrides.
type ObjectSpec struct {
	Properties map[string]Spec
	// Keys/Values describe an open dictionary (any key accepted) instead
	// of, or in addition to, named Properties.
	Keys   Spec
	Values Spec

	Constraints ObjectConstraints
	If          []Conditional
	Switch      *Switch

	// PropertyValidationPriority orders property validation when one
	// property's resolved type feeds a sibling's validation (e.g. `from`
	// in a pipeline `apply`). Properties not listed validate in sorted name
	// order after the listed ones.
	PropertyValidationPriority []string

	RefConfig *RefConfig
}

func (ObjectSpec) isSpec() {}

// RefType is the closed set of reference kinds a Ref spec may accept.
type RefType string

const (
	RefAction        RefType = "action"
	RefObjectPromise RefType = "object_promise"
	RefCheckpoint    RefType = "checkpoint"
	RefThreadGroup   RefType = "thread_group"
	RefParty         RefType = "party"
	RefLocalRef      RefType = "local_ref"
	RefFilterRef     RefType = "filter_ref"
	RefObjectType    RefType = "object_type"
)

// RefSpec validates that a value is a ref string resolving to one of
// RefTypes.
type RefSpec struct {
	RefTypes      []RefType
	ExpectedValue *ExpectedValueQuery
}

func (RefSpec) isSpec() {}

// ExpectedValueQuery enforces that the resolved referent matches another
// value in the document, or matches another ref's referent.
type ExpectedValueQuery struct {
	// EqualsPath, when set, is a dotted path (relative to the document
	// root) whose value the ref's resolved entity must equal.
	EqualsPath string
}

// MultiTypeSpec accepts a value iff any one sub-spec accepts it.
type MultiTypeSpec struct {
	Types []Spec
}

func (MultiTypeSpec) isSpec() {}

// SpecByName looks up a named spec in the catalog, optionally patching
// its properties before evaluation.
type SpecByName struct {
	ObjSpecName     string
	ObjSpecModifier *ObjSpecModifier
}

func (SpecByName) isSpec() {}

// ObjSpecModifier patches an ObjectSpec's properties before it validates
// a particular value, without mutating the catalog entry.
type ObjSpecModifier struct {
	AddProperties      map[string]Spec
	OverrideProperties map[string]Spec
	RemoveProperties   []string
}

// AnyOfSpecs accepts a value iff any of the named specs in the catalog
// accepts it. When none accepts it, a single "does not match any of"
// error is reported; the rejecting candidates' own diagnostics are
// discarded, not aggregated.
type AnyOfSpecs struct {
	AnyOfSpecNames []string
}

func (AnyOfSpecs) isSpec() {}
