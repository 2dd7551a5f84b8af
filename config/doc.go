// Package config loads the settings of the library binary and builds the
// connections and telemetry providers they describe.
//
// Values are read from a .env file, then from the environment, then from
// command line flags; each source overrides the previous one.
package config
