package main

// ShortcutPolicy tells the renderer which browser shortcuts stay enabled.
type ShortcutPolicy struct {
	DevTools bool `json:"devTools"` // F12 opens the inspector
	Reload   bool `json:"reload"`   // Ctrl/Cmd+R reloads the page
}

// shortcutPolicyFor keeps the inspector and reload shortcuts for development
// builds only.
func shortcutPolicyFor(dev bool) ShortcutPolicy {
	return ShortcutPolicy{DevTools: dev, Reload: dev}
}

// GetShortcutPolicy returns the keyboard shortcut policy of this build.
func (a *App) GetShortcutPolicy() ShortcutPolicy {
	return shortcutPolicyFor(a.dev)
}
