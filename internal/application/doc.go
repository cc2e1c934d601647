// Package application provides application initialization and dependency wiring.
// It builds the package registry, site, resolver and configuration manager
// from a config.Config and puts the API router and HTTP server on top, so the
// main package only deals with CLI parsing and orchestration.
package application
