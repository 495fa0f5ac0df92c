package app

import "testing"

func TestParseAmountCents(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int64
	}{
		{name: "french format with currency symbol", raw: "1 250,00 €", want: 125000},
		{name: "narrow no-break space separator", raw: "1\u202f250,00\u00a0€", want: 125000},
		{name: "dot decimal", raw: "1250.5", want: 125050},
		{name: "plain integer", raw: "750", want: 75000},
		{name: "comma decimal", raw: "750,00", want: 75000},
		{name: "comma thousands with dot decimal", raw: "1,250.00", want: 125000},
		{name: "rounds to nearest cent", raw: "10.005", want: 1001},
		{name: "empty string", raw: "", want: 0},
		{name: "garbage", raw: "n/a", want: 0},
		{name: "two decimal separators", raw: "1.2.3", want: 0},
		{name: "negative clamps to zero", raw: "-15,00", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseAmountCents(tt.raw); got != tt.want {
				t.Fatalf("ParseAmountCents(%q) = %d, want %d", tt.raw, got, tt.want)
			}
		})
	}
}
