// Package options resolves caller-supplied compiler options into the single
// normalized option set every engine adapter consumes.
//
// Normalization runs in two steps:
//
//  1. Normalize resolves the Source (a literal bag, a mapping from a config
//     file, or a provider callable) and layers context-derived defaults on
//     top without overwriting anything the caller set: output style, the
//     indented-syntax flag, source maps, and the entry file's directory,
//     appended to IncludePaths.
//  2. ResolveFiber decides whether a cooperative-scheduling handle travels
//     with the options, once the target engine's capabilities are known.
//
// Both steps return fresh values; inputs are never mutated. Normalizing an
// already normalized bag returns an equal bag.
package options
