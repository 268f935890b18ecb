// Package config handles configuration loading, parsing, and validation
// from a config file and TOKENGATE_-prefixed environment variables. It provides
// type-safe access to the settings needed by the server, the user store and the
// token service while keeping configuration details separate from business logic.
package config
