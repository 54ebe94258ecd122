// Package harness runs conformance scenarios against the generated schema
// and the subscription broker.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	schema: movies.graphql
//	subscriptions:
//	  - name: recent
//	    query: |
//	      subscription { movieCreated(where: { releasedIn: { gt: 1999 } }) { event } }
//	  - name: bad_literal
//	    query: |
//	      subscription ($w: MovieSubscriptionWhere) { movieCreated(where: $w) { event } }
//	    variables: { w: { releasedIn: { eq: "soon" } } }
//	    expect_error: literal
//	events:
//	  - id: e1
//	    entity: Movie
//	    op: created
//	    after: { title: "Heat", releasedIn: 1995 }
//	assertions:
//	  - type: delivered
//	    subscription: recent
//	    events: [e2, e3]
//	  - type: lacks_fields
//	    target: StringScalarFilters
//	    fields: [lt, gt]
//
// # Assertion Types
//
//   - delivered: a subscription received exactly the listed events, in order
//   - has_fields / lacks_fields: fields present on or absent from a generated type
//   - type_absent: a type was not generated
//   - document_valid / document_invalid: a GraphQL document against the schema
//
// # Determinism
//
// Events are dispatched one at a time and every subscriber sees them in
// publish order, so the delivery trace of a scenario is identical across
// runs and can be compared against a golden snapshot with RunWithGolden.
package harness
