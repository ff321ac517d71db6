// Package importer turns downloaded deck packages into local collections.
// The engine treats importing as pluggable: anything that can take package
// bytes and produce a collection reference satisfies PackageImporter.
package importer

import "context"

// PackageImporter installs a deck package and returns the reference the
// card store will address the resulting collection by.
type PackageImporter interface {
	Import(ctx context.Context, pkg []byte, name string) (localRef string, err error)
}
