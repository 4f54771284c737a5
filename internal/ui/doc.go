// Package ui styles the terminal output of the practice CLI with lipgloss.
//
// [Styles] is the shared [Palette]: status lines ([Palette.OK], [Palette.Err], [Palette.Warn]),
// headings and bordered tables for list commands.
package ui
