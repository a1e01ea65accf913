// Package environment names the deployment environments and carries the
// current one through request contexts.
package environment
