// Package binding tracks which use cases are bound to which lifecycle
// source and resolved resource set.
//
// # Activation policy
//
// Exactly one record may be active: the most recently prioritized one.
// Prioritizing a record demotes the previous one. A record holds a claim on
// its primary resource only while it is active and has use cases, so a
// demoted record releases its claim asynchronously and keeps its use cases
// for when it is prioritized again.
package binding
