// Package discovery enumerates candidate source files under a directory tree.
//
// Walk lists every regular file beneath a root in lexical depth-first order,
// pruning hidden entries and excluded path patterns. Filter and FilterFold
// narrow that list to the configured source extension.
package discovery
