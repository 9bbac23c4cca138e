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

// Package pu implements the ARM9's fixed eight-region protection unit and
// builds the ARM9 page-fast map from its region table.
package pu

import "github.com/horizon3ds/horizon/hardware/memory/fastmap"

const NumRegions = 8

// dataPrivileged and dataUser are the 4-bit-code -> permission decode
// tables; indices beyond the table's explicit entries carry no access.
var dataPrivileged = [16]fastmap.Perm{
	0:  0,
	1:  fastmap.Read | fastmap.Write,
	2:  fastmap.Read | fastmap.Write,
	3:  fastmap.Read | fastmap.Write,
	4:  0,
	5:  fastmap.Read,
	6:  fastmap.Read,
	7:  0,
}

var dataUser = [16]fastmap.Perm{
	0: 0,
	1: 0,
	2: fastmap.Read,
	3: fastmap.Read | fastmap.Write,
	4: 0,
	5: 0,
	6: fastmap.Read,
	7: 0,
}

// Region is one of the ARM9's eight fixed protection regions.
type Region struct {
	Raw     uint32 // base/size/enable word as written to CP15
	DataNib uint32 // 4-bit-per-region nibble from the data-permission word
	InstrNib uint32 // 4-bit-per-region nibble from the instruction-permission word
}

func (r Region) Enabled() bool { return r.Raw&1 != 0 }

func (r Region) Size() uint32 {
	return 2 << ((r.Raw >> 1) & 0x1F)
}

func (r Region) Base() uint32 {
	return (r.Raw >> 12) << 12
}

// Unit is the ARM9 protection unit: eight regions in priority order, higher
// index wins on overlap.
type Unit struct {
	Regions [NumRegions]Region
}

// instrPerm decodes the two-boolean-per-privilege instruction permission
// encoding: bit 0 of the nibble is the privileged-execute bit, bit 1 is the
// user-execute bit, matching the data tables' layout.
func instrPerm(nibble uint32) (priv, user fastmap.Perm) {
	if nibble&0x1 != 0 {
		priv = fastmap.Execute
	}
	if nibble&0x2 != 0 {
		user = fastmap.Execute
	}
	return
}

// Rebuild walks the regions from low to high priority (so that higher index
// applications overwrite lower ones, "higher wins, clipped partial lower"
// per below) and writes the resulting effective permission into
// both the privileged and user fast maps for every covered 4KB page. Pages
// outside every enabled region are left not-present.
func (u *Unit) Rebuild(priv, user *fastmap.Map, ram []byte, ramBase uint32) {
	priv.ClearAll()
	user.ClearAll()

	for i := 0; i < NumRegions; i++ {
		r := u.Regions[i]
		if !r.Enabled() {
			continue
		}
		base := r.Base()
		size := r.Size()

		dp := dataPrivileged[r.DataNib&0xF]
		du := dataUser[r.DataNib&0xF]
		ip, iu := instrPerm(r.InstrNib)

		for addr := base; addr < base+size; addr += fastmap.PageSize {
			if addr >= ramBase && addr < ramBase+uint32(len(ram)) {
				priv.SetBacked(addr, ram, ramBase, dp|ip)
				user.SetBacked(addr, ram, ramBase, du|iu)
			} else {
				priv.SetMMIO(addr, addr, dp|ip)
				user.SetMMIO(addr, addr, du|iu)
			}
		}
	}
}
