// Package liftlog carries assets embedded into the server binary.
package liftlog

import "embed"

// CatalogFS holds the exercise catalog produced by liftlog-import.
//
//go:embed data/exercises.json
var CatalogFS embed.FS
