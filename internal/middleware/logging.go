// Package middleware wraps commands with cross-cutting behavior.
package middleware

import (
	"log/slog"
	"time"

	"github.com/TheFirstGuy/AncestrE/internal/command"
)

// Logging returns a Command that logs every Execute and Undo of next,
// with the family name, duration, and any error.
func Logging(family string, next command.Command) command.Command {
	return &loggedCommand{family: family, next: next}
}

type loggedCommand struct {
	family string
	next   command.Command
}

func (l *loggedCommand) Name() string {
	return l.next.Name()
}

func (l *loggedCommand) Execute() error {
	return l.log("execute", l.next.Execute)
}

func (l *loggedCommand) Undo() error {
	return l.log("undo", l.next.Undo)
}

func (l *loggedCommand) log(op string, fn func() error) error {
	start := time.Now()
	err := fn()
	duration := time.Since(start).Microseconds()

	if err != nil {
		slog.Warn("Command error",
			"command", l.next.Name(),
			"op", op,
			"family", l.family,
			"error", err,
			"duration_us", duration,
		)
	} else {
		slog.Info("Command ok",
			"command", l.next.Name(),
			"op", op,
			"family", l.family,
			"duration_us", duration,
		)
	}
	return err
}
