// Package application runs the startup sequence of the service: resolve the
// configuration, bind the primary listener, then bind the health-check
// listener. Each step runs on the caller's goroutine and the first failure
// stops the sequence.
package application
