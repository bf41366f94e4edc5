// Package log is a small wrapper around the standard library logger that
// gives every subsystem its own named logger.
//
// Usage:
//
//	l := log.ForService("cache")
//	l.Infof("backend %s ready", name)
//	l.Debugf("key %q stored", key) // printed only when debug is enabled
//
// Debug output can be enabled globally with SetGlobalDebug, or for one
// service with EnableDebugFor. Tests capture output with SetOutput.
//
// The package name collides with the standard library "log"; alias one of
// them when both are imported.
package log
