// Package config loads relay configuration from YAML.
//
// Values may reference environment variables as ${VAR}; they are expanded
// before parsing. LoadAndValidate is the normal entry point: it applies
// defaults for every optional field and then checks the result.
package config
