package core

import (
	"runtime"
	"time"

	"github.com/samber/lo"

	"github.com/urim-raffle/gateway/core/ops"
)

// Status is the payload served on /status.
type Status struct {
	Status     string   `json:"status"`
	Uptime     string   `json:"uptime"`
	GoVersion  string   `json:"go_version"`
	Goroutines int      `json:"goroutines"`
	Mode       string   `json:"mode"`
	Commands   []string `json:"commands"`
	Senders    []string `json:"senders"`
	Stats      Stats    `json:"stats"`
}

// BuildStatus reports uptime since startedAt together with dispatcher counters.
func BuildStatus(startedAt time.Time, mode string, d *Dispatcher, reg *Registry) Status {
	return Status{
		Status:     "ok",
		Uptime:     time.Since(startedAt).Truncate(time.Second).String(),
		GoVersion:  runtime.Version(),
		Goroutines: runtime.NumGoroutine(),
		Mode:       mode,
		Commands: lo.Map(d.Ops(), func(op ops.Op, _ int) string {
			return "/" + string(op.Kind())
		}),
		Senders: reg.Names(),
		Stats:   d.Stats(),
	}
}
