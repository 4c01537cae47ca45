// Package source defines the lookup boundary between the identity resolver and
// the information sources it consults.
//
// A Source answers a single keyword with optional Evidence: a display name, a
// normalized birth date, and any aliases the source knows. Sources are held in
// a Registry whose order is the trust ranking used for tie-breaks; the registry
// is built once from configuration and never mutated afterwards.
//
// Concrete adapters live here as well: an offline TOML catalog and a generic
// HTTP JSON adapter that extracts fields with gjson paths. Adapters own their
// retry and rate-limit policy; the resolver never retries a lookup itself.
package source
