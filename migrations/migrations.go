// Package migrations embeds the SQL migrations for the prediction history.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
