package bigcount

import (
	"math"
	"math/big"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAddStaysNativeWithinRange(t *testing.T) {
	var dest BigCount
	Add(&dest, FromUint64(10), 20)

	if dest.IsPromoted() {
		t.Fatalf("expected native result, got promoted")
	}
	if diff := cmp.Diff(uint64(30), dest.Uint64()); diff != "" {
		t.Fatalf("sum mismatch (-want +got):\n%s", diff)
	}
}

func TestAddPromotesOnOverflow(t *testing.T) {
	var dest BigCount
	Add(&dest, FromUint64(math.MaxUint64), 1)

	if !dest.IsPromoted() {
		t.Fatalf("expected promotion on overflow")
	}

	want := new(big.Int).Add(new(big.Int).SetUint64(math.MaxUint64), big.NewInt(1))
	var got big.Int
	dest.ToBig(&got)
	if diff := cmp.Diff(want.String(), got.String()); diff != "" {
		t.Fatalf("promoted sum mismatch (-want +got):\n%s", diff)
	}
}

func TestMulPromotesOnOverflow(t *testing.T) {
	var dest BigCount
	Mul(&dest, FromUint64(math.MaxUint64), 2)

	if !dest.IsPromoted() {
		t.Fatalf("expected promotion on overflow")
	}

	want := new(big.Int).Mul(new(big.Int).SetUint64(math.MaxUint64), big.NewInt(2))
	var got big.Int
	dest.ToBig(&got)
	if diff := cmp.Diff(want.String(), got.String()); diff != "" {
		t.Fatalf("promoted product mismatch (-want +got):\n%s", diff)
	}
}

func TestMulByZeroStaysNative(t *testing.T) {
	var dest BigCount
	Mul(&dest, FromUint64(math.MaxUint64), 0)
	if dest.IsPromoted() {
		t.Fatalf("expected native zero result")
	}
	if dest.Uint64() != 0 {
		t.Fatalf("expected zero, got %d", dest.Uint64())
	}
}

func TestCmpNativeVsPromoted(t *testing.T) {
	native := FromUint64(5)
	promoted := FromBigInt(big.NewInt(1))

	if Cmp(promoted, native) <= 0 {
		t.Fatalf("expected promoted to compare greater regardless of magnitude")
	}
	if Cmp(native, promoted) >= 0 {
		t.Fatalf("expected native to compare less than promoted")
	}
}

func TestCmpSameMode(t *testing.T) {
	cases := []struct {
		name string
		a, b BigCount
		want int
	}{
		{"native equal", FromUint64(3), FromUint64(3), 0},
		{"native less", FromUint64(2), FromUint64(3), -1},
		{"native greater", FromUint64(4), FromUint64(3), 1},
		{"promoted equal", FromBigInt(big.NewInt(9)), FromBigInt(big.NewInt(9)), 0},
		{"promoted less", FromBigInt(big.NewInt(8)), FromBigInt(big.NewInt(9)), -1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if diff := cmp.Diff(tc.want, Cmp(tc.a, tc.b)); diff != "" {
				t.Fatalf("Cmp mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
