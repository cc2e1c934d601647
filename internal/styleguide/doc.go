// Package styleguide aggregates the Fluid Styleguide configuration of a site.
//
// The default document shipped by the fluid_styleguide package is loaded
// first; every other active package may override it with a document at the
// same relative path. Overrides are merged in registry order, later packages
// winning on conflicting keys. Component asset lists are then resolved into
// URLs and empty responsive breakpoints are dropped. The result is held as an
// immutable Snapshot that a reload replaces atomically.
package styleguide
