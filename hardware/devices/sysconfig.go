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

// SysConfig backs the 0x10000000-0x1000001F system-config range: the
// handful of registers firmware reads at boot to tell New3DS from Old3DS and
// to read the hardware's boot state.
type SysConfig struct {
	regs *RegisterFile
}

const (
	sysConfigBase = 0x10000000
	sysConfigSize = 0x20
)

// NewSysConfig returns a SysConfig device; callers poke New3DS/model bits
// into it directly via WriteMMIO during reset, mirroring how the real SoC's
// config registers are strapped from fuses at power-on.
func NewSysConfig() *SysConfig {
	return &SysConfig{regs: NewRegisterFile(sysConfigBase, sysConfigSize)}
}

func (s *SysConfig) ReadMMIO(width int, addr uint32) (uint64, error) {
	if err := checkWidth(widths(1, 2, 4), width, addr); err != nil {
		return 0, err
	}
	return s.regs.Read(width, addr), nil
}

func (s *SysConfig) WriteMMIO(width int, addr uint32, value uint64) error {
	if err := checkWidth(widths(1, 2, 4), width, addr); err != nil {
		return err
	}
	s.regs.Write(width, addr, value)
	return nil
}

// XDMA is the DMA-channel-configuration stub at 0x1000C000-0x1000D000:
// channel descriptors are captured but transfers complete instantly against
// the bus, with no modelled transfer latency.
type XDMA struct {
	regs *RegisterFile

	// Execute is called on a write to the per-channel "go" bit (offset 0x00
	// within each 0x20-byte channel block) with that channel's source,
	// destination and length registers already captured in regs; it performs
	// the actual bus-to-bus copy. May be nil in tests that only check
	// register plumbing.
	Execute func(channel int, regs *RegisterFile)
}

const (
	xdmaBase         = 0x1000C000
	xdmaSize         = 0x1000
	xdmaChannelSize  = 0x20
	xdmaChannelCount = xdmaSize / xdmaChannelSize
)

// NewXDMA returns an XDMA stub covering its full register range.
func NewXDMA() *XDMA {
	return &XDMA{regs: NewRegisterFile(xdmaBase, xdmaSize)}
}

func (x *XDMA) ReadMMIO(width int, addr uint32) (uint64, error) {
	if err := checkWidth(widths(1, 2, 4), width, addr); err != nil {
		return 0, err
	}
	return x.regs.Read(width, addr), nil
}

func (x *XDMA) WriteMMIO(width int, addr uint32, value uint64) error {
	if err := checkWidth(widths(1, 2, 4), width, addr); err != nil {
		return err
	}
	x.regs.Write(width, addr, value)

	off := addr - xdmaBase
	if off%xdmaChannelSize == 0 && value&0x1 != 0 {
		channel := int(off / xdmaChannelSize)
		if channel < xdmaChannelCount && x.Execute != nil {
			x.Execute(channel, x.regs)
		}
	}
	return nil
}
