// Package config defines the format-agnostic configuration model for the
// toolchain: the bus topology, compiler settings and the Loader interface
// the application consumes. Concrete loaders, such as the HCL one, live in
// their own packages and translate into this model.
package config
