// Package importer wraps caller-supplied importers, the host resolver and
// Sass-style filesystem search behind a single resolution entry point that
// every engine adapter calls.
//
// Resolution order for one specifier:
//
//  1. Caller importers, in the order supplied. The first non-nil result wins.
//  2. For "~module/path" requests, the host's module resolver.
//  3. Filesystem search for Sass partials: the importing file's directory
//     (nested partials only), then IncludePaths in order.
//  4. The host's module resolver for bare requests nothing else matched.
//
// Every file that ends up resolved is reported to the host's dependency
// tracker once per compile, keyed by its NFC-normalized absolute path.
// Results are always returned with contents, so engines that only accept
// contents and engines that accept paths are served by the same call.
package importer
