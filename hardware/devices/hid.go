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

// HID is the 16-bit button/pad register named here: bits are "pressed is
// 0", so PressedMask holds the logical (1-means-pressed) state and the MMIO
// read complements it before returning.
type HID struct {
	Base        uint32
	PressedMask uint16
}

// NewHID returns a HID device reporting no buttons pressed.
func NewHID(base uint32) *HID {
	return &HID{Base: base}
}

// SetPressed updates the logical pressed-state the next read will reflect.
func (h *HID) SetPressed(mask uint16) { h.PressedMask = mask }

func (h *HID) ReadMMIO(width int, addr uint32) (uint64, error) {
	if err := checkWidth(widths(2), width, addr); err != nil {
		return 0, err
	}
	return uint64(^h.PressedMask), nil
}

func (h *HID) WriteMMIO(width int, addr uint32, value uint64) error {
	return checkWidth(widths(2), width, addr)
}
