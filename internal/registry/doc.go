// Package registry drives the external publish action for a staged package.
package registry
