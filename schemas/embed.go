// Package schemas holds the JSON Schemas for documents exchanged with external services
// and for persisted session state.
package schemas

import "embed"

// Files contains every *.schema.json in this directory.
//
//go:embed *.schema.json
var Files embed.FS
