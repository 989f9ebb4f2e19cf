/*
 * nosshtradamus: predictive terminal emulation for SSH
 * Copyright 2019 Daniel Selifonov
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 */

// Package ioswitch provides Switch, an io.ReadWriteCloser that can be
// redirected at construction time from a real backing implementation to an
// alternative one, without its caller knowing which is live. Adapted from
// the teacher's IoSwitch (internal/predictive/ioswitch.go); retargeted from
// an SSH byte-stream refractor to the serial endpoint's real-port-vs-loopback
// switch.
package ioswitch

import "io"

// Switch wraps two io.ReadWriteCloser implementations, passthrough and
// alternate, dispatching every call to whichever is currently enabled.
type Switch struct {
	passthrough io.ReadWriteCloser
	alternate   io.ReadWriteCloser
	enabled     bool
}

// New returns a Switch that starts out dispatching to passthrough.
func New(passthrough io.ReadWriteCloser) *Switch {
	return &Switch{passthrough: passthrough}
}

func (s *Switch) Read(p []byte) (int, error) {
	if s.enabled {
		return s.alternate.Read(p)
	}
	return s.passthrough.Read(p)
}

func (s *Switch) Write(p []byte) (int, error) {
	if s.enabled {
		return s.alternate.Write(p)
	}
	return s.passthrough.Write(p)
}

func (s *Switch) Close() error {
	if s.enabled {
		return s.alternate.Close()
	}
	return s.passthrough.Close()
}

// EnableAlternate switches every subsequent call over to alternate. Once
// enabled, it cannot be toggled back; a Switch models one irreversible
// real-vs-substitute decision made at construction time.
func (s *Switch) EnableAlternate(alternate io.ReadWriteCloser) {
	if !s.enabled {
		s.alternate = alternate
		s.enabled = true
	}
}
