//go:build !linux

package main

// prepareEnvironment has nothing to adjust outside Linux.
func prepareEnvironment() {}
