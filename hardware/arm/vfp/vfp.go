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

// Package vfp implements the ARM11's scalar floating point unit: a 32x32-bit
// register file overlaid as 16x64-bit doubles, FPSCR/FPEXC, and the scalar
// arithmetic/conversion/comparison operation set named here.
//
// The register file is a plain uint32 array plus a status struct; arithmetic
// is implemented on top of math.Float32bits/math.Float64bits rather than
// hand-unpacking IEEE fields: only correctly-rounded scalar results are
// needed, plus the four comparison flags, not bit-exact replication of every
// NaN and subnormal edge case, which the standard library's float types
// already give for free.
package vfp

import (
	"fmt"
	"math"

	"github.com/horizon3ds/horizon/errors"
)

// FPSCR holds rounding mode, NZCV, and vector length/stride. Vector mode is
// not supported here: any non-zero vector length or stride is a fatal
// implementation error.
type FPSCR struct {
	N, Z, C, V bool
	VectorLen    uint8
	VectorStride uint8
}

// FPEXC is the floating point exception/enable register; only the enable
// bit is modelled.
type FPEXC struct {
	Enable bool
}

// VFP is one ARM11 core's scalar floating point unit.
type VFP struct {
	Registers [32]uint32
	FPSCR     FPSCR
	FPEXC     FPEXC
}

func (v *VFP) Reset() {
	*v = VFP{}
}

// checkScalar enforces the scalar-only restriction. The single-precision
// arithmetic ops call it before operating; the double-precision and
// conversion ops call it after writing their result; the compares do not
// call it.
func (v *VFP) checkScalar() error {
	if v.FPSCR.VectorLen != 0 || v.FPSCR.VectorStride != 0 {
		return errors.Errorf(errors.VectorModeVFP, fmt.Sprintf("vector_len=%d vector_stride=%d", v.FPSCR.VectorLen, v.FPSCR.VectorStride))
	}
	return nil
}

func (v *VFP) S(n int) float32 { return math.Float32frombits(v.Registers[n]) }
func (v *VFP) SetS(n int, f float32) { v.Registers[n] = math.Float32bits(f) }

func (v *VFP) D(n int) float64 {
	lo := uint64(v.Registers[n*2])
	hi := uint64(v.Registers[n*2+1])
	return math.Float64frombits(lo | hi<<32)
}

func (v *VFP) SetD(n int, f float64) {
	bits := math.Float64bits(f)
	v.Registers[n*2] = uint32(bits)
	v.Registers[n*2+1] = uint32(bits >> 32)
}

// binary single-precision ops.
func (v *VFP) AddS(d, n, m int) error {
	if err := v.checkScalar(); err != nil {
		return err
	}
	v.SetS(d, v.S(n)+v.S(m))
	return nil
}

func (v *VFP) SubS(d, n, m int) error {
	if err := v.checkScalar(); err != nil {
		return err
	}
	v.SetS(d, v.S(n)-v.S(m))
	return nil
}

func (v *VFP) MulS(d, n, m int) error {
	if err := v.checkScalar(); err != nil {
		return err
	}
	v.SetS(d, v.S(n)*v.S(m))
	return nil
}

func (v *VFP) DivS(d, n, m int) error {
	if err := v.checkScalar(); err != nil {
		return err
	}
	v.SetS(d, v.S(n)/v.S(m))
	return nil
}

func (v *VFP) MacS(d, n, m int) error {
	if err := v.checkScalar(); err != nil {
		return err
	}
	v.SetS(d, v.S(d)+v.S(n)*v.S(m))
	return nil
}

func (v *VFP) NmacS(d, n, m int) error {
	if err := v.checkScalar(); err != nil {
		return err
	}
	v.SetS(d, v.S(d)-v.S(n)*v.S(m))
	return nil
}

func (v *VFP) MscS(d, n, m int) error {
	if err := v.checkScalar(); err != nil {
		return err
	}
	v.SetS(d, -v.S(d)+v.S(n)*v.S(m))
	return nil
}

func (v *VFP) NmscS(d, n, m int) error {
	if err := v.checkScalar(); err != nil {
		return err
	}
	v.SetS(d, -(v.S(n)*v.S(m) - v.S(d)))
	return nil
}

func (v *VFP) NegS(d, m int) error {
	if err := v.checkScalar(); err != nil {
		return err
	}
	v.SetS(d, -v.S(m))
	return nil
}

func (v *VFP) AbsS(d, m int) error {
	if err := v.checkScalar(); err != nil {
		return err
	}
	v.SetS(d, float32(math.Abs(float64(v.S(m)))))
	return nil
}

func (v *VFP) SqrtS(d, m int) error {
	if err := v.checkScalar(); err != nil {
		return err
	}
	v.SetS(d, float32(math.Sqrt(float64(v.S(m)))))
	return nil
}

func (v *VFP) CopyS(d, m int) error {
	if err := v.checkScalar(); err != nil {
		return err
	}
	v.SetS(d, v.S(m))
	return nil
}

// double-precision equivalents.
func (v *VFP) AddD(d, n, m int) error { v.SetD(d, v.D(n)+v.D(m)); return v.checkScalar() }
func (v *VFP) SubD(d, n, m int) error { v.SetD(d, v.D(n)-v.D(m)); return v.checkScalar() }
func (v *VFP) MulD(d, n, m int) error { v.SetD(d, v.D(n)*v.D(m)); return v.checkScalar() }
func (v *VFP) DivD(d, n, m int) error { v.SetD(d, v.D(n)/v.D(m)); return v.checkScalar() }
func (v *VFP) MacD(d, n, m int) error { v.SetD(d, v.D(d)+v.D(n)*v.D(m)); return v.checkScalar() }
func (v *VFP) NmacD(d, n, m int) error { v.SetD(d, v.D(d)-v.D(n)*v.D(m)); return v.checkScalar() }
func (v *VFP) MscD(d, n, m int) error { v.SetD(d, -v.D(d)+v.D(n)*v.D(m)); return v.checkScalar() }
func (v *VFP) NmscD(d, n, m int) error { v.SetD(d, -(v.D(n)*v.D(m) - v.D(d))); return v.checkScalar() }
func (v *VFP) NegD(d, m int) error      { v.SetD(d, -v.D(m)); return v.checkScalar() }
func (v *VFP) AbsD(d, m int) error      { v.SetD(d, math.Abs(v.D(m))); return v.checkScalar() }
func (v *VFP) SqrtD(d, m int) error     { v.SetD(d, math.Sqrt(v.D(m))); return v.checkScalar() }
func (v *VFP) CopyD(d, m int) error     { v.SetD(d, v.D(m)); return v.checkScalar() }

// CmpS compares two singles, setting FPSCR N/Z/C/V per the comparison
// contract: N = a<b, Z = a==b, C = !N, V unused (zero).
func (v *VFP) CmpS(n, m int) {
	a, b := v.S(n), v.S(m)
	v.FPSCR.N = a < b
	v.FPSCR.Z = a == b
	v.FPSCR.C = !v.FPSCR.N
	v.FPSCR.V = false
}

func (v *VFP) CmpD(n, m int) {
	a, b := v.D(n), v.D(m)
	v.FPSCR.N = a < b
	v.FPSCR.Z = a == b
	v.FPSCR.C = !v.FPSCR.N
	v.FPSCR.V = false
}

// CmpES is the signalling variant; this implementation treats it the same as
// CmpS since NaN-signalling is never exercised in scalar-only use.
func (v *VFP) CmpES(n, m int) { v.CmpS(n, m) }
func (v *VFP) CmpED(n, m int) { v.CmpD(n, m) }

func (v *VFP) SIntToS(d, m int) error {
	v.SetS(d, float32(int32(v.Registers[m])))
	return v.checkScalar()
}

func (v *VFP) UIntToS(d, m int) error {
	v.SetS(d, float32(v.Registers[m]))
	return v.checkScalar()
}

func (v *VFP) SToSInt(d, m int) error {
	v.Registers[d] = uint32(int32(v.S(m)))
	return v.checkScalar()
}

func (v *VFP) SToUInt(d, m int) error {
	v.Registers[d] = uint32(v.S(m))
	return v.checkScalar()
}

func (v *VFP) SToD(d, m int) error {
	v.SetD(d, float64(v.S(m)))
	return v.checkScalar()
}

func (v *VFP) DToS(d, m int) error {
	v.SetS(d, float32(v.D(m)))
	return v.checkScalar()
}
