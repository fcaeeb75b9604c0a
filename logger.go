// Package vafs
// Copyright (C) 2025 Alex Gaetano Padula & VFSLite Contributors
//
// This library is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 2.1 of the License, or (at your option) any later version.
//
// This library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public
// License along with this library; if not, write to the Free Software
// Foundation, Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301  USA
package vafs

import (
	"fmt"

	charmlog "github.com/charmbracelet/log"
)

// Logger is the diagnostic hook the image layer reports through (image
// create, open and finalize).
// The engine never decides on its own to print anything; a caller who
// never sets Config.Logger gets noopLogger and observes nothing.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debugf(string, ...any) {}
func (noopLogger) Infof(string, ...any)  {}
func (noopLogger) Warnf(string, ...any)  {}
func (noopLogger) Errorf(string, ...any) {}

// charmLogger adapts github.com/charmbracelet/log's *Logger to the Logger
// interface. NewCharmLogger gives callers a ready-made structured,
// leveled logger instead of having to wire the adapter themselves.
type charmLogger struct {
	l *charmlog.Logger
}

// NewCharmLogger wraps l, or the package default charm logger if l is nil.
func NewCharmLogger(l *charmlog.Logger) Logger {
	if l == nil {
		l = charmlog.Default()
	}
	return charmLogger{l: l}
}

func (c charmLogger) Debugf(format string, args ...any) { c.l.Debug(fmt.Sprintf(format, args...)) }
func (c charmLogger) Infof(format string, args ...any)  { c.l.Info(fmt.Sprintf(format, args...)) }
func (c charmLogger) Warnf(format string, args ...any)  { c.l.Warn(fmt.Sprintf(format, args...)) }
func (c charmLogger) Errorf(format string, args ...any) { c.l.Error(fmt.Sprintf(format, args...)) }
