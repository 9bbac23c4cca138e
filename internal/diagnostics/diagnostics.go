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

// Package diagnostics dumps internal emulator state to graphviz .dot files
// as a test-only debugging aid, the same role commandline.Commands' memviz
// dump plays in the parser tests this package borrows the pattern from.
package diagnostics

import (
	"io"

	"github.com/bradleyjkemp/memviz"

	"github.com/horizon3ds/horizon/hardware/memory/fastmap"
)

// FastMapSnapshot is the compact, memviz-friendly view of a page-fast-map:
// the full NumPages entry table is unexported and far too large to walk by
// reflection, so this mirrors fastmap.Map.Regions() into a plain struct.
type FastMapSnapshot struct {
	Regions []fastmap.Region
}

// SnapshotFastMap builds a FastMapSnapshot from m.
func SnapshotFastMap(m *fastmap.Map) FastMapSnapshot {
	return FastMapSnapshot{Regions: m.Regions()}
}

// DumpFastMap writes m's region summary to w as a graphviz .dot graph.
func DumpFastMap(w io.Writer, m *fastmap.Map) {
	snap := SnapshotFastMap(m)
	memviz.Map(w, &snap)
}
