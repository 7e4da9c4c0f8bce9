// Package main hosts the cifinalize CLI entrypoint and command graph.
//
// The Cobra command tree wires configuration, logging, the SD-root lock and
// the host console store around the finalize engine. `run` performs a
// finalize pass, `inspect` decodes a pending database without touching
// anything, `console` reads and seeds the host console store, and `config`
// scaffolds and validates configuration.
//
// Keep this package lean: behaviour belongs in the internal packages and is
// only surfaced here.
package main
