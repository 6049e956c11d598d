package main

import (
	"fmt"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/host"
)

// PingReply is the answer to the frontend's diagnostic ping.
type PingReply struct {
	Message  string `json:"message"`
	Version  string `json:"version"`
	Platform string `json:"platform"`
	Uptime   string `json:"uptime,omitempty"`
}

// handlePing answers the "ping" event.
func (a *App) handlePing(optionalData ...interface{}) {
	a.log.Info("pong")
}

// Ping returns host facts for diagnostics. Host lookups that fail leave the
// corresponding fields at their runtime defaults.
func (a *App) Ping() PingReply {
	reply := PingReply{
		Message:  "pong",
		Version:  Version,
		Platform: runtime.GOOS,
	}

	info, err := host.Info()
	if err != nil {
		a.log.Debug(fmt.Sprintf("Host info unavailable: %v", err))
		return reply
	}

	if info.Platform != "" {
		reply.Platform = fmt.Sprintf("%s %s", info.Platform, info.PlatformVersion)
	}
	reply.Uptime = (time.Duration(info.Uptime) * time.Second).String()
	return reply
}
