// Package ui renders game rounds, playlist metadata and errors for the terminal with lipgloss styles.
//
// The CLI uses it for human-readable output; every command also has a --json mode that bypasses it.
package ui
