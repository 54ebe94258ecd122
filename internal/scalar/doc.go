// Package scalar is the scalar kind table shared by the schema generators and
// the event predicate evaluator.
//
// Kind is a closed enumeration. Every switch over Kind in this module is
// exhaustive and ends in a panic for Invalid or unknown values, so adding a
// kind fails loudly at every call site that has not been taught about it.
// TestEveryKindIsCovered walks All and exercises each table.
package scalar
