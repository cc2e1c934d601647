// Package config loads the runtime configuration of the styleguide service
// from multiple sources (YAML file, environment variables, CLI flags) with
// precedence: CLI flags > Environment variables > YAML config > Defaults.
// Layers are merged with mergo; settings where zero is meaningful, such as
// disabling the rate limiter, are applied explicitly.
package config
