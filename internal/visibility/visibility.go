// Package visibility decides which generated artifacts a field appears in.
//
// The rules, per artifact:
//
//   - Output, EventPayload: requires selectable onRead.
//   - Sort: requires onRead and sortable byValue; never lists or
//     relationships.
//   - Where: requires filterable byValue. Read selectability does not
//     matter, so a write-only field stays filterable.
//   - SubscriptionWhere: scalar fields that are both onRead and byValue.
//   - Create / Update: settable onCreate / onUpdate.
//   - AggregateSelection: aggregatable scalar kinds with onAggregate.
//   - AggregationWhere: aggregatable scalar kinds with onAggregate and
//     filterable byAggregate.
//   - RelationshipAggregate: see RelationshipAggregateEnabled.
package visibility

import (
	"fmt"

	"github.com/roach88/schemaforge/internal/model"
	"github.com/roach88/schemaforge/internal/scalar"
)

// Artifact is a generated type family a field can be projected into.
type Artifact int

const (
	Output Artifact = iota
	Sort
	Where
	SubscriptionWhere
	EventPayload
	Create
	Update
	AggregateSelection
	AggregationWhere
	RelationshipAggregate
)

var artifactNames = [...]string{
	Output:                "output",
	Sort:                  "sort",
	Where:                 "where",
	SubscriptionWhere:     "subscriptionWhere",
	EventPayload:          "eventPayload",
	Create:                "create",
	Update:                "update",
	AggregateSelection:    "aggregateSelection",
	AggregationWhere:      "aggregationWhere",
	RelationshipAggregate: "relationshipAggregate",
}

func (a Artifact) String() string {
	if a >= 0 && int(a) < len(artifactNames) {
		return artifactNames[a]
	}
	return fmt.Sprintf("Artifact(%d)", int(a))
}

// Include reports whether field f is emitted into artifact a.
func Include(f *model.Field, a Artifact) bool {
	switch a {
	case Output:
		return f.Selectable.OnRead
	case EventPayload:
		return f.IsScalar() && f.Selectable.OnRead
	case Sort:
		return f.IsScalar() && !f.IsList() && f.Selectable.OnRead && f.Sortable.ByValue
	case Where:
		return f.Filterable.ByValue
	case SubscriptionWhere:
		return f.IsScalar() && f.Selectable.OnRead && f.Filterable.ByValue
	case Create:
		return f.Settable.OnCreate
	case Update:
		return f.Settable.OnUpdate
	case AggregateSelection:
		return f.IsScalar() && !f.IsList() && scalar.Aggregatable(f.Kind) && f.Selectable.OnAggregate
	case AggregationWhere:
		return f.IsScalar() && !f.IsList() && scalar.Aggregatable(f.Kind) &&
			f.Selectable.OnAggregate && f.Filterable.ByAggregate
	case RelationshipAggregate:
		return RelationshipAggregateEnabled(f)
	default:
		panic(fmt.Sprintf("visibility: unhandled artifact %v", a))
	}
}

// RelationshipAggregateEnabled reports whether a relationship field gets a
// <field>Aggregate accessor and a <field>Aggregate filter slot.
//
// Precedence, highest first:
//  1. Union targets never aggregate.
//  2. The relationship's own aggregate flag, when set, decides. An explicit
//     aggregate: true makes @selectable(onAggregate: false) a no-op, and
//     aggregate: false disables regardless of the field flag.
//  3. Otherwise the field's selectable onAggregate flag decides.
func RelationshipAggregateEnabled(f *model.Field) bool {
	rel := f.Relation
	if rel == nil {
		return false
	}
	if rel.TargetCategory == model.TargetUnion {
		return false
	}
	if rel.Aggregate != nil {
		return *rel.Aggregate
	}
	return f.Selectable.OnAggregate
}

// RelationshipAggregateFilterEnabled additionally honours
// @filterable(byAggregate: false) on the relationship field.
func RelationshipAggregateFilterEnabled(f *model.Field) bool {
	return RelationshipAggregateEnabled(f) && f.Filterable.ByAggregate
}

// Filter returns the fields of fields that are included in a.
func Filter(fields []*model.Field, a Artifact) []*model.Field {
	var out []*model.Field
	for _, f := range fields {
		if Include(f, a) {
			out = append(out, f)
		}
	}
	return out
}
