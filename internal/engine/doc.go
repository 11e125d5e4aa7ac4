// Package engine defines the compiler engine abstraction and the adapters
// for the engines the loader knows how to drive.
//
// An Engine renders one Request and reports through a completion
// callback. Engines that can answer inline additionally implement
// SyncRenderer. What an engine can do (cooperative scheduling, how its
// importers return results) is static data looked up by the engine's
// name, never probed at call time.
//
// SELECTION:
//
// A Selector picks the engine for a request. An explicitly supplied
// engine always wins; otherwise registered discoverers are tried in rank
// order and the first one that finds its engine is used. The modern
// engine (Dart Sass over the embedded protocol) ranks before the legacy
// one (LibSass, only available in cgo builds). Failing to find any engine
// is a configuration error reported when a compile asks for one.
package engine
