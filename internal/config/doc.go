// Package config loads the YAML configuration shared by the loader, the
// query tool and the migrator.
//
// Values of the form ${VAR} are expanded from the environment. A .env file
// in the working directory, if present, is loaded into the environment
// first and never overrides variables that are already set.
package config
