// Package config loads the CLV batch configuration.
//
// Layers, lowest precedence first: built-in defaults (the reference model
// constants), the YAML file passed to Load, CLV_* environment variables, and
// finally command-line flags, which the caller applies before calling Validate.
//
// Sections:
//   - source.dsn: donor_data connection (postgres://, mysql:// or mariadb://)
//   - publish: per-donor table DSN, ClickHouse history DSN, output files
//   - run: model constants and segment_bounds
//   - metrics: optional Prometheus pushgateway target
package config
