// Package app wires the toolchain together: it owns the logger, drives the
// loader, the compiler and the lowering pass, dispatches compiled programs
// to instrument drivers and prints plans or parsed results.
package app
