package main

import "runtime"

// PlatformDarwin is the GOOS value that keeps the app alive without windows.
const PlatformDarwin = "darwin"

// lifecyclePolicy decides what closing the window does.
type lifecyclePolicy struct {
	platform string
}

// currentLifecyclePolicy returns the policy for the running platform.
func currentLifecyclePolicy() lifecyclePolicy {
	return lifecyclePolicy{platform: runtime.GOOS}
}

// HideWindowOnClose is true on macOS, where apps stay in the dock until quit
// explicitly. The close button hides the app and clicking the dock icon
// brings the window back. Elsewhere closing the window quits.
func (p lifecyclePolicy) HideWindowOnClose() bool {
	return p.platform == PlatformDarwin
}
