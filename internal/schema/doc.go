// Package schema generates the augmented GraphQL schema of a model: per
// entity read, connection and aggregate queries, create/update/delete
// mutations, created/updated/deleted subscriptions and every filter, sort,
// aggregation and mutation input they take.
//
// Generation is single-threaded and deterministic. All state lives in a
// BuildContext that Build creates and discards.
//
// # Type Registry
//
// Every generated type is registered through BuildContext.ensure under a
// name and an origin. The origin names the artifact and the declaration it
// was derived from, such as "where:Movie" or "ConnectionWhere:Movie.actors".
// Asking again with the same origin returns the existing type; the same
// name with another origin is a collision and fails the build.
//
// # Build Errors
//
//   - E201: two artifacts generate the same type name
//   - E202: a field references a type that was never generated
//   - E203: a filter exposes an operator its kind does not define
//   - E204: graphql-go rejected the generated schema
//   - E205: two fields of one type share a name
//
// The printed SDL lists types sorted by name with fields in emission order,
// so two builds of the same model produce the same bytes.
package schema
