package money

import (
	"errors"
	"testing"

	"github.com/matryer/is"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name   string
		amount Money
		n      int
		want   []Money
	}{
		{name: "exact", amount: 300, n: 3, want: []Money{100, 100, 100}},
		{name: "remainder goes to first shares", amount: 100, n: 3, want: []Money{34, 33, 33}},
		{name: "remainder of two", amount: 1001, n: 3, want: []Money{334, 334, 333}},
		{name: "single share", amount: 777, n: 1, want: []Money{777}},
		{name: "more shares than units", amount: 2, n: 4, want: []Money{1, 1, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.amount.Split(tt.n)
			if err != nil {
				t.Fatalf("Split() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Split() returned %d shares, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("share %d = %d, want %d", i, got[i], tt.want[i])
				}
			}
			if Sum(got...) != tt.amount {
				t.Errorf("shares sum to %d, want %d", Sum(got...), tt.amount)
			}
		})
	}
}

func TestSplitRejectsZeroShares(t *testing.T) {
	if _, err := Money(100).Split(0); err == nil {
		t.Error("expected error splitting into zero shares")
	}
}

func TestFormat(t *testing.T) {
	is := is.New(t)

	is.Equal(Money(0).Format(), "Rp0")
	is.Equal(Money(950).Format(), "Rp950")
	is.Equal(Money(1500000).Format(), "Rp1.500.000")
	is.Equal(Money(-25000).Format(), "-Rp25.000")

	is.Equal(Money(1500000).FormatShort(), "Rp1.5M")
	is.Equal(Money(150000).FormatShort(), "Rp150K")
	is.Equal(Money(999).FormatShort(), "Rp999")
}

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Money
		wantErr bool
	}{
		{in: "150000", want: 150000},
		{in: "150.000", want: 150000},
		{in: "1,250,000", want: 1250000},
		{in: " Rp 25.000 ", want: 25000},
		{in: "1,50", want: 150},
		{in: "", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "-500", wantErr: true},
		{in: "Rp-500", wantErr: true},
		{in: "+500", wantErr: true},
		{in: "99999999999999999999", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, ErrInvalidAmount) {
					t.Errorf("expected ErrInvalidAmount, got %v", err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestMinAndAbs(t *testing.T) {
	is := is.New(t)
	is.Equal(Min(3, 5), Money(3))
	is.Equal(Min(-3, 5), Money(-3))
	is.Equal(Money(-42).Abs(), Money(42))
	is.True(Money(-1).IsNegative())
	is.True(Money(1).IsPositive())
	is.True(Zero.IsZero())
}
