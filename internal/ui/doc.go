// Package ui implements the interactive song list using bubbletea's Elm architecture.
//
// The [Model] shows one repertoire at a time as a tab, with its songs in the order
// produced by the ordering engine of a [tasks.Controller]. Sort keys, search and
// row actions are all routed through the controller so the lock on the rendered
// order behaves the same as in the CLI.
//
// Backend calls run as [tea.Cmd]s. While one is in flight the model is busy and
// ignores everything except quit, so the controller is never used from two
// goroutines at once.
//
// Keyboard navigation uses vim-style bindings with contextual help displayed via
// charmbracelet/bubbles/help. A song is moved by grabbing it with m, shifting it
// with j/k and dropping it with enter.
package ui
