// This file is part of Horizon3DS.
//
// Horizon3DS is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Horizon3DS is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Horizon3DS.  If not, see <https://www.gnu.org/licenses/>.

// Package pxi implements the ARM9/ARM11 IPC mailbox: two 16-deep word FIFOs
// (one per direction) plus a one-byte-per-side sync register.
package pxi

// Side names the two endpoints of the mailbox.
type Side int

const (
	ARM9 Side = iota
	ARM11
)

func other(s Side) Side {
	if s == ARM9 {
		return ARM11
	}
	return ARM9
}

const fifoDepth = 16

type fifo struct {
	data  [fifoDepth]uint32
	count int
	head  int
}

func (f *fifo) push(v uint32) bool {
	if f.count == fifoDepth {
		return false
	}
	f.data[(f.head+f.count)%fifoDepth] = v
	f.count++
	return true
}

func (f *fifo) pop() (uint32, bool) {
	if f.count == 0 {
		return 0, false
	}
	v := f.data[f.head]
	f.head = (f.head + 1) % fifoDepth
	f.count--
	return v, true
}

func (f *fifo) clear() { *f = fifo{} }

func (f *fifo) empty() bool { return f.count == 0 }
func (f *fifo) full() bool  { return f.count == fifoDepth }

// sideState is one endpoint's registers: its send FIFO (the other side's
// receive FIFO), sync byte, and IRQ enable bits.
type sideState struct {
	send           fifo
	syncByte       uint8
	recvNotEmptyEn bool
	sendEmptyEn    bool
	remoteIRQEn    bool // sync register's cross-side IRQ gate
}

// Mailbox is the pair of FIFOs and sync registers joining the ARM9 and
// ARM11 PXI ports.
type Mailbox struct {
	sides [2]sideState

	// RaiseIRQ is called with the side whose IRQ line should pulse. May be
	// nil.
	RaiseIRQ func(s Side)

	// hleReady becomes true after the first ARM11->ARM9 sync write, mirroring
	// the "HLE ready" handshake the ARM9 firmware's IPC stack watches for
	// when no real ARM11 binary is present.
	hleReady bool
}

// New returns an empty mailbox.
func New() *Mailbox { return &Mailbox{} }

// SendTo pushes v onto s's send FIFO (read by the other side's Recv). If the
// FIFO transitions empty to non-empty and the receiver's recv-not-empty IRQ
// is enabled, the receiver's IRQ is raised.
func (m *Mailbox) SendTo(s Side, v uint32) bool {
	ss := &m.sides[s]
	wasEmpty := ss.send.empty()
	if !ss.send.push(v) {
		return false
	}
	if wasEmpty {
		recv := &m.sides[other(s)]
		if recv.recvNotEmptyEn && m.RaiseIRQ != nil {
			m.RaiseIRQ(other(s))
		}
	}
	return true
}

// Recv pops from the opposite side's send FIFO (i.e. s's receive FIFO). On
// an empty-to-non-empty-to-empty transition (the FIFO becomes empty as a
// result of this pop), if the sender's send-empty IRQ is enabled, the
// sender's IRQ is raised.
func (m *Mailbox) Recv(s Side) (uint32, bool) {
	sender := other(s)
	ss := &m.sides[sender]
	v, ok := ss.send.pop()
	if !ok {
		return 0, false
	}
	if ss.send.empty() && ss.sendEmptyEn && m.RaiseIRQ != nil {
		m.RaiseIRQ(sender)
	}
	return v, true
}

// ClearSend empties s's own send FIFO, per the clear-bit write.
func (m *Mailbox) ClearSend(s Side) {
	m.sides[s].send.clear()
}

// SendFIFOStatus reports empty/full of s's send FIFO, as read back through
// the CNT register.
func (m *Mailbox) SendFIFOStatus(s Side) (empty, full bool) {
	ss := &m.sides[s]
	return ss.send.empty(), ss.send.full()
}

// RecvFIFOStatus reports empty/full of s's receive FIFO (the other side's
// send FIFO).
func (m *Mailbox) RecvFIFOStatus(s Side) (empty, full bool) {
	ss := &m.sides[other(s)]
	return ss.send.empty(), ss.send.full()
}

// SetFIFOIRQEnables configures s's recv-not-empty and send-empty IRQ gates.
func (m *Mailbox) SetFIFOIRQEnables(s Side, recvNotEmpty, sendEmpty bool) {
	m.sides[s].recvNotEmptyEn = recvNotEmpty
	m.sides[s].sendEmptyEn = sendEmpty
}

// ReadSync returns the concatenation of both sides' sync bytes, own side
// first in the low byte, per the sync register's read contract.
func (m *Mailbox) ReadSync(s Side) uint16 {
	own := m.sides[s].syncByte
	remote := m.sides[other(s)].syncByte
	return uint16(own) | uint16(remote)<<8
}

// WriteSync sets s's own sync byte and, when raiseRemoteIRQ is set (bit
// 29/30 of the write), raises the other side's IRQ if that side's
// local-IRQ-enable bit is set. The ARM11->ARM9 direction additionally latches
// the HLE-ready handshake on its first sync write.
func (m *Mailbox) WriteSync(s Side, value uint8, raiseRemoteIRQ bool) {
	m.sides[s].syncByte = value
	if s == ARM11 {
		m.hleReady = true
	}
	if raiseRemoteIRQ && m.sides[other(s)].remoteIRQEn && m.RaiseIRQ != nil {
		m.RaiseIRQ(other(s))
	}
}

// SetRemoteIRQEnable configures whether s accepts a sync-triggered IRQ from
// the other side.
func (m *Mailbox) SetRemoteIRQEnable(s Side, enabled bool) {
	m.sides[s].remoteIRQEn = enabled
}

// HLEReady reports whether the ARM11 side has performed its first sync
// write yet.
func (m *Mailbox) HLEReady() bool {
	return m.hleReady
}
