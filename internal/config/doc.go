// Package config loads, normalizes, and validates narrator configuration.
//
// Configuration lives in a TOML file (default ~/.config/narrator/config.toml,
// falling back to ./narrator.toml). Load starts from Default(), overlays the
// file when present, expands "~" in every path, applies environment
// fallbacks, and finally runs Validate so callers receive a ready-to-use
// Config.
//
// Sections map onto subsystems: [paths] for directories, [synth] for the
// external speech synthesizer, [lrc] for subtitle line-break rules,
// [chapters] for novel splitting, and [logging] for log output. Add new
// settings here first, then thread them into the owning package.
package config
