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

package errors_test

import (
	"fmt"
	"testing"

	"github.com/horizon3ds/horizon/errors"
)

const testError = "test error: %s"
const testErrorB = "test error B: %s"

func TestDuplicateErrors(t *testing.T) {
	e := errors.Errorf(testError, "foo")
	if e.Error() != "test error: foo" {
		t.Fatalf("unexpected error message: %s", e.Error())
	}

	// packing errors of the same type next to each other causes
	// one of them to be dropped
	f := errors.Errorf(testError, e)
	if f.Error() != "test error: foo" {
		t.Fatalf("unexpected de-duplicated error message: %s", f.Error())
	}
}

func TestIs(t *testing.T) {
	e := errors.Errorf(testError, "foo")
	if !errors.Is(e, testError) {
		t.Fatalf("expected Is(e, testError) to be true")
	}

	// Has() should fail because we haven't included testErrorB anywhere in the error
	if errors.Has(e, testErrorB) {
		t.Fatalf("expected Has(e, testErrorB) to be false")
	}

	// wrapping e in an error of a different type: Is sees only the outer
	// type, while Has still finds testError inside
	f := errors.Errorf(testErrorB, e)
	if errors.Is(f, testError) {
		t.Fatalf("expected Is(f, testError) to be false")
	}
	if !errors.Is(f, testErrorB) {
		t.Fatalf("expected Is(f, testErrorB) to be true")
	}
	if !errors.Has(f, testError) {
		t.Fatalf("expected Has(f, testError) to be true")
	}
	if !errors.Has(f, testErrorB) {
		t.Fatalf("expected Has(f, testErrorB) to be true")
	}

	// IsAny should return true for these errors also
	if !errors.IsAny(e) {
		t.Fatalf("expected IsAny(e) to be true")
	}
	if !errors.IsAny(f) {
		t.Fatalf("expected IsAny(f) to be true")
	}
}

func TestPlainErrors(t *testing.T) {
	// test plain errors that haven't been formatted with our errors package
	e := fmt.Errorf("plain test error")
	if errors.IsAny(e) {
		t.Fatalf("expected IsAny(e) to be false for a plain error")
	}

	const testError = "test error: %s"

	if errors.Has(e, testError) {
		t.Fatalf("expected Has(e, testError) to be false for a plain error")
	}
}
