// Package resources embeds the assets shipped inside the binary.
package resources

import "embed"

//go:embed migrations
var FS embed.FS
