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

import "math/rand"

// PRNG is a single 32-bit read-only register that returns a fresh
// pseudo-random value on every read, per the PRNG range. Source is
// injectable so tests can make output deterministic.
type PRNG struct {
	Base   uint32
	Source *rand.Rand
}

// NewPRNG returns a PRNG seeded deterministically; callers that want real
// entropy can replace Source.
func NewPRNG(base uint32, seed int64) *PRNG {
	return &PRNG{Base: base, Source: rand.New(rand.NewSource(seed))}
}

func (p *PRNG) ReadMMIO(width int, addr uint32) (uint64, error) {
	if err := checkWidth(widths(4), width, addr); err != nil {
		return 0, err
	}
	return uint64(p.Source.Uint32()), nil
}

func (p *PRNG) WriteMMIO(width int, addr uint32, value uint64) error {
	return checkWidth(widths(4), width, addr)
}

// OTP is the one-time-programmable fuse bank: a small backing store that, once
// locked, rejects further writes and answers every read with 0xFF bytes —
// matching real hardware's behaviour of presenting a locked OTP as
// all-ones to software that hasn't authenticated to read it.
type OTP struct {
	regs   *RegisterFile
	locked bool
}

// NewOTP returns an unlocked OTP of size bytes at base; Lock() latches it.
func NewOTP(base uint32, size int) *OTP {
	return &OTP{regs: NewRegisterFile(base, size)}
}

// Lock permanently switches the OTP into locked-read mode.
func (o *OTP) Lock() { o.locked = true }

func (o *OTP) ReadMMIO(width int, addr uint32) (uint64, error) {
	if err := checkWidth(widths(1, 2, 4), width, addr); err != nil {
		return 0, err
	}
	if o.locked {
		mask := uint64(1)<<(uint(width)*8) - 1
		return mask, nil
	}
	return o.regs.Read(width, addr), nil
}

func (o *OTP) WriteMMIO(width int, addr uint32, value uint64) error {
	if err := checkWidth(widths(1, 2, 4), width, addr); err != nil {
		return err
	}
	if o.locked {
		return nil
	}
	o.regs.Write(width, addr, value)
	return nil
}
