// Package diag defines the error taxonomy shared by every stage of a
// stylesheet compile.
//
// Every failure that leaves the loader is a *Error carrying a Kind:
//
//   - KindConfiguration: no usable engine, or a malformed option shape.
//   - KindImportResolution: an import no importer or search path could satisfy.
//   - KindCompile: a language-level error reported by the engine.
//   - KindInternal: engine callback misuse, panics inside wrapped callables,
//     or any other adapter failure.
//
// Line and Column are 1-based and optional. A nil pointer means the engine
// did not report the value; zero is never used as "unknown".
package diag
