// Package dashboard provides the embedded status page assets served by the
// REST API on the root path.
package dashboard

import "embed"

// StaticFS holds the embedded dashboard/static files.
//
//go:embed all:static
var StaticFS embed.FS
