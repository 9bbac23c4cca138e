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

package devices

import (
	"crypto/sha1"
	"crypto/sha256"
	"encoding/binary"

	"github.com/horizon3ds/horizon/errors"
)

// SHAEngine is the SHA-1/SHA-256 coprocessor: SHA_CNT at its base address,
// an 8-word hash-output window at base+0x40, and a FIFO data port at
// base+0x80, matching the real engine's register layout. Unlike
// CryptoEngine's generic done-bit echo, this one actually hashes the bytes
// written through its FIFO: guest code that calls into this engine to, say,
// hash a file it just read is expecting a real digest back, not an echo.
//
// The real hardware streams 16 words at a time into a round function and
// keeps only the running state between rounds; this engine instead buffers
// every FIFO word written since the last reset-hash bit and hashes the
// accumulated buffer in one shot when the final-round bit is set. The
// result is bit-identical to the real engine's at the only point software
// can observe it (the finished hash word), which is what callers poll for.
type SHAEngine struct {
	regs *RegisterFile

	mode         uint8 // 0 = SHA-256, 2/3 = SHA-1, per SHA_CNT bits 5:4
	outBigEndian bool
	irq0Enable   bool
	irq1Enable   bool
	fifoEnable   bool

	buf  []byte
	hash [8]uint32
}

const (
	shaRegCNT    = 0x00
	shaHashBase  = 0x40
	shaHashEnd   = 0x80
	shaFIFOBase  = 0x80
	shaFIFOEnd   = 0xC0
)

// NewSHAEngine returns an engine occupying the half-open byte range
// [base, base+size).
func NewSHAEngine(base uint32, size int) *SHAEngine {
	return &SHAEngine{regs: NewRegisterFile(base, size)}
}

func (s *SHAEngine) ReadMMIO(width int, addr uint32) (uint64, error) {
	if err := checkWidth(widths(1, 2, 4), width, addr); err != nil {
		return 0, err
	}
	off := addr - s.regs.Base

	if off >= shaHashBase && off < shaHashEnd {
		index := (off / 4) & 0x7
		v := s.hash[index]
		if !s.outBigEndian {
			v = byteSwap32(v)
		}
		return uint64(v), nil
	}

	switch off {
	case shaRegCNT:
		var v uint64
		if s.irq0Enable {
			v |= 1 << 2
		}
		if s.outBigEndian {
			v |= 1 << 3
		}
		v |= uint64(s.mode) << 4
		if s.fifoEnable {
			v |= 1 << 9
		}
		if s.irq1Enable {
			v |= 1 << 10
		}
		return v, nil
	}
	return 0, errors.Errorf(errors.UnmappedMMIO, addr)
}

func (s *SHAEngine) WriteMMIO(width int, addr uint32, value uint64) error {
	if err := checkWidth(widths(1, 2, 4), width, addr); err != nil {
		return err
	}
	off := addr - s.regs.Base

	if off >= shaFIFOBase && off < shaFIFOEnd {
		var w [4]byte
		binary.LittleEndian.PutUint32(w[:], uint32(value))
		s.buf = append(s.buf, w[:]...)
		s.fifoEnable = true
		return nil
	}

	switch off {
	case shaRegCNT:
		s.irq0Enable = value&(1<<2) != 0
		s.outBigEndian = value&(1<<3) != 0
		s.mode = uint8((value >> 4) & 0x3)
		s.irq1Enable = value&(1<<10) != 0
		if value&0x1 != 0 {
			s.buf = s.buf[:0]
		}
		if value&(1<<1) != 0 {
			s.finish()
		}
		return nil
	}
	return errors.Errorf(errors.UnmappedMMIO, addr)
}

// finish computes the digest over every byte buffered since the last
// reset-hash write and splits it into the eight big-endian words the
// hash-output window reads back.
func (s *SHAEngine) finish() {
	var digest []byte
	switch s.mode {
	case 0:
		sum := sha256.Sum256(s.buf)
		digest = sum[:]
	default: // SHA-1
		sum := sha1.Sum(s.buf)
		digest = sum[:]
	}
	for i := range s.hash {
		if i*4+4 > len(digest) {
			s.hash[i] = 0
			continue
		}
		s.hash[i] = binary.BigEndian.Uint32(digest[i*4:])
	}
	s.fifoEnable = false
}

func byteSwap32(v uint32) uint32 {
	return (v>>24)&0xFF | (v>>8)&0xFF00 | (v<<8)&0xFF0000 | (v << 24)
}
