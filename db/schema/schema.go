// Package schema carries the run-tracking database migrations, embedded
// so they can be applied programmatically at connect time.
package schema

import "embed"

// Migrations holds the golang-migrate migration files.
//
//go:embed *.sql
var Migrations embed.FS
