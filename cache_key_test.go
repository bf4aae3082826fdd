package textatlas

import "testing"

func TestNewSubpixelBin(t *testing.T) {
	tests := []struct {
		pos   float32
		whole int32
		bin   SubpixelBin
	}{
		{0, 0, SubpixelZero},
		{0.1, 0, SubpixelZero},
		{0.125, 0, SubpixelOne},
		{0.3, 0, SubpixelOne},
		{0.5, 0, SubpixelTwo},
		{0.7, 0, SubpixelThree},
		{0.875, 1, SubpixelZero},
		{0.95, 1, SubpixelZero},
		{12.25, 12, SubpixelOne},
		{-0.1, 0, SubpixelZero},
		{-0.25, -1, SubpixelThree},
		{-0.5, -1, SubpixelTwo},
		{-0.75, -1, SubpixelOne},
		{-0.9, -1, SubpixelZero},
		{-3.5, -4, SubpixelTwo},
	}
	for _, tt := range tests {
		whole, bin := NewSubpixelBin(tt.pos)
		if whole != tt.whole || bin != tt.bin {
			t.Errorf("NewSubpixelBin(%v) = (%d, %d), want (%d, %d)", tt.pos, whole, bin, tt.whole, tt.bin)
		}
	}
}

func TestSubpixelBinFloat(t *testing.T) {
	want := map[SubpixelBin]float32{
		SubpixelZero:  0,
		SubpixelOne:   0.25,
		SubpixelTwo:   0.5,
		SubpixelThree: 0.75,
	}
	for bin, f := range want {
		if got := bin.Float(); got != f {
			t.Errorf("%d.Float() = %v, want %v", bin, got, f)
		}
	}
}

func TestNewCacheKey(t *testing.T) {
	key, x, y := NewCacheKey(3, 42, 16, 10.5, 20, FlagFakeBold)
	if x != 10 || y != 20 {
		t.Errorf("position = (%d, %d), want (10, 20)", x, y)
	}
	if key.Origin != OriginShaped || key.XBin != SubpixelTwo || key.YBin != SubpixelZero {
		t.Errorf("key = %+v", key)
	}
	if key.FontSize() != 16 {
		t.Errorf("FontSize() = %v, want 16", key.FontSize())
	}

	same, _, _ := NewCacheKey(3, 42, 16, 30.5, 90, FlagFakeBold)
	if same != key {
		t.Error("keys at the same bins differ")
	}
	other, _, _ := NewCacheKey(3, 42, 16, 30.5, 90, 0)
	if other == key {
		t.Error("flags do not distinguish keys")
	}
}

func TestNewCustomCacheKey(t *testing.T) {
	a := NewCustomCacheKey(1, 20, 20, SubpixelZero, SubpixelZero)
	b := NewCustomCacheKey(1, 40, 40, SubpixelZero, SubpixelZero)
	if a == b {
		t.Error("custom keys at different sizes are equal")
	}
	shaped, _, _ := NewCacheKey(0, 1, 0, 0, 0, 0)
	if custom := NewCustomCacheKey(1, 0, 0, SubpixelZero, SubpixelZero); custom == shaped {
		t.Error("custom key collides with shaped key")
	}
}
