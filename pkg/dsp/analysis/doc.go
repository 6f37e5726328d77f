// Package analysis provides signal meters used to report what a plugin
// produced.
package analysis
