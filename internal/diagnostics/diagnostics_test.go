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

package diagnostics

import (
	"os"
	"testing"

	"github.com/horizon3ds/horizon/hardware/memory/fastmap"
)

func TestDumpFastMap(t *testing.T) {
	m := fastmap.NewMap()
	buf := make([]byte, fastmap.PageSize*3)
	m.SetBacked(0x08000000, buf, 0x08000000, fastmap.Read|fastmap.Write|fastmap.Execute)
	m.SetBacked(0x08000000+fastmap.PageSize, buf, 0x08000000, fastmap.Read|fastmap.Write|fastmap.Execute)
	m.SetMMIO(0x10140000, 0x10140000, fastmap.Read|fastmap.Write)

	snap := SnapshotFastMap(m)
	if len(snap.Regions) != 2 {
		t.Fatalf("expected 2 compressed regions, got %d", len(snap.Regions))
	}
	if snap.Regions[0].End-snap.Regions[0].Start != 2*fastmap.PageSize {
		t.Errorf("expected the two adjacent RAM pages to merge into one region")
	}

	f, err := os.Create("fastmap.dot")
	if err != nil {
		t.Fatalf(err.Error())
	}
	defer func() {
		if err := f.Close(); err != nil {
			t.Fatalf(err.Error())
		}
		os.Remove("fastmap.dot")
	}()
	DumpFastMap(f, m)
}
