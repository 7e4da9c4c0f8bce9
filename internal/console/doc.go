// Package console renders finalize progress for an operator watching a
// terminal and holds the session open until they dismiss it.
package console
