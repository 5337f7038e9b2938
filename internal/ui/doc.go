// Package ui styles the operator CLI's terminal output with lipgloss.
//
// [Palette] colors status lines; [Table] renders account and claim listings.
package ui
