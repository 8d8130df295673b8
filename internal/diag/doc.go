// Package diag defines the diagnostic model shared by the code generator and
// the driver.
//
// Diagnostic is the central record: Severity, a stable numeric Code (rendered
// as CG4xxx / DRV5xxx), a short Message, the Primary span and optional Notes.
//
// Code generation never aborts on a finding. Lowering reports through a
// Reporter, substitutes a placeholder value and keeps traversing, so a single
// run surfaces as many diagnostics as possible. Compilation fails overall when
// the collected Bag HasErrors.
//
// Package diag does not format anything; rendering lives in internal/diagfmt.
package diag
