// Package bearer verifies the Authorization header of HTTP requests against
// a bearer-token scheme.
//
// Options are normalized once into an immutable RuntimeConfig by Normalize
// (or New, which also builds the Engine). Normalization fails fast with a
// *ConfigError (or *InvalidLogLevelError) before any request is served.
//
// For each request the Engine runs a short, linear state machine:
//
//	ExtractHeader -> MatchPrefix -> ExtractCredential -> Verify -> Classify
//
// and produces an Outcome of Proceed, Unauthorized or InternalError.
// Static keys are compared in constant time; a configured AuthFunc or
// AsyncAuthFunc replaces the key check entirely. Synchronous results,
// asynchronous results, returned errors and panics are all funneled through
// a single Result channel before classification.
//
// The header must have the form "<type> <credential>". The single space after
// the type is part of the expected prefix, so "BearerKEY" is rejected even
// when the type matches. Under RFC6749 the type is matched case-insensitively;
// under RFC6750 (the default) it must match exactly.
package bearer
