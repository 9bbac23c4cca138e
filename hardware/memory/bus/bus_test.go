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

package bus

import (
	"encoding/binary"
	"testing"

	"github.com/horizon3ds/horizon/errors"
	"github.com/horizon3ds/horizon/hardware/memory/fastmap"
)

func newFlatBus(kind Kind, mem []byte) *Bus {
	fast := fastmap.NewMap()
	fast.SetBacked(0, mem, 0, fastmap.Read|fastmap.Write|fastmap.Execute)
	return New(kind, fast, NewDispatcher())
}

// An ARM11 unaligned word load rotates the naturally-aligned word right by
// (addr&3)*8 bits rather than faulting.
func TestARM11UnalignedWordLoadRotates(t *testing.T) {
	mem := make([]byte, 0x1000)
	binary.LittleEndian.PutUint32(mem[0x000:], 0xDEADBEEF)
	binary.LittleEndian.PutUint32(mem[0x004:], 0x12345678)

	b := newFlatBus(ARM11, mem)
	v, err := b.Read(Data, 0x002, 4)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if v != 0xBEEFDEAD {
		t.Fatalf("got 0x%08x, want 0xBEEFDEAD", v)
	}
}

// ARM9 treats any unaligned halfword/word access as fatal, never rotating.
func TestARM9UnalignedAccessIsFatal(t *testing.T) {
	mem := make([]byte, 0x1000)
	b := newFlatBus(ARM9, mem)

	_, err := b.Read(Data, 0x002, 4)
	if err == nil || !errors.Is(err, errors.UnalignedAccess) {
		t.Fatalf("expected UnalignedAccess, got %v", err)
	}
}
