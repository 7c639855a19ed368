package inventory

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestKindValid(t *testing.T) {
	for _, k := range []Kind{KindIn, KindOut, KindAdjust} {
		if !k.Valid() {
			t.Errorf("expected %q to be valid", k)
		}
	}
	if Kind("transfer").Valid() {
		t.Error("expected transfer to be invalid")
	}
}
