// Package config loads, normalizes, and validates cifinalize configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads a .env file from the working directory,
// and honours environment fallbacks such as CIFINALIZE_SD_ROOT. The Config type
// centralizes every knob the finalize engine and CLI need: where the SD root
// lives, how the pending database is versioned, which ticket template to use,
// and whether the pending file is removed after a completed run.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths and clear validation errors.
package config
