package main

// Default limits for CLI commands.
const (
	DefaultListLimit   = 20
	DefaultExportLimit = 1000
	PreviewLength      = 72
	BarWidth           = 20
)

// Valid export formats.
var validFormats = []string{"json", "csv", "markdown"}
