// Package extract reads annotated type declarations and resolves them into
// a model.Model.
//
// Declarations come either as GraphQL SDL with directives (FromSDL) or as a
// CUE document (FromCUE, FromCUESource). Load picks the reader from the file
// extension and reads a directory as CUE. Both readers feed the same
// resolver, which checks references and directive arguments and collects
// every problem before returning.
//
// # Declaration Errors
//
// Each problem is a *DeclarationError carrying a code and the source
// position of the offending declaration. Codes run from E101 (object type
// with no marker) to E117 (field name reserved for a generated field); see
// errors.go for the full list. HasCode reports whether an error returned by
// a reader contains a given code.
package extract
