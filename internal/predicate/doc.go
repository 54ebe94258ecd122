// Package predicate compiles client filter arguments into a sealed
// expression tree and evaluates it against change-event records.
//
// Compile checks every key against the model and the scalar kind table and
// coerces every literal once. Evaluate is pure: it reads the record and the
// tree and keeps no state, so one compiled filter may be evaluated from many
// goroutines at once.
//
// A key the schema does not expose is a *FilterError. A literal that cannot
// be coerced to its field's kind is a *LiteralError. Either fails only the
// filter that carries it.
package predicate
