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

package pxi

// hleCommand names one IPC service-call header the ARM9 side's HLE firmware
// recognises: the high 16 bits of the header are the command id within the
// service's own numbering, the low 16 the normal/translate parameter counts.
// Real firmware dispatches on the whole 32-bit header; this table only names
// the ones most often seen crossing the mailbox during boot and filesystem
// access, for diagnostic logging of otherwise-opaque command words.
type hleCommand struct {
	service string
	name    string
}

var hleCommandsByHeader = map[uint32]hleCommand{
	0x000101C2: {"fs", "OpenFile"},
	0x00090142: {"fs", "ReadFile"},
	0x000B0182: {"fs", "WriteFile"},
	0x000F0080: {"fs", "CloseFile"},
	0x000D0080: {"fs", "GetFileSize"},
	0x00050202: {"fs", "CreateFile"},
	0x00060182: {"fs", "CreateDirectory"},
	0x001200C2: {"fs", "OpenArchive"},
	0x00160080: {"fs", "CloseArchive"},
	0x001500C0: {"fs", "CommitSaveData"},
	0x000A00C2: {"fs", "CalculateFileHashSHA256"},
	0x00180000: {"fs", "GetCardType"},
	0x001C0000: {"fs", "IsSdmcDetected"},
	0x00400000: {"fs", "InitializeCtrFilesystem"},
	0x00010082: {"pm", "GetProgramInfo"},
	0x00020200: {"pm", "RegisterProgram"},
	0x00030080: {"pm", "UnregisterProgram"},
}

// DescribeCommand reports the service/name a mailbox word is known to carry
// as an IPC command header, for logging. Unrecognised headers (anything
// outside the table above, including ordinary data words that merely
// resemble one) report ok=false.
func DescribeCommand(header uint32) (service, name string, ok bool) {
	c, found := hleCommandsByHeader[header]
	if !found {
		return "", "", false
	}
	return c.service, c.name, true
}
