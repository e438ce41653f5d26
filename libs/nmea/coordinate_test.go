package nmea

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToDecimal(t *testing.T) {
	tests := []struct {
		name       string
		coord      string
		hemisphere string
		expected   float64
		valid      bool
	}{
		{name: "Latitude north", coord: "5016.611174", hemisphere: "N", expected: 50 + 16.611174/60, valid: true},
		{name: "Longitude east with leading zero", coord: "01903.767172", hemisphere: "E", expected: 19 + 3.767172/60, valid: true},
		{name: "Latitude south", coord: "4807.038", hemisphere: "S", expected: -(48 + 7.038/60), valid: true},
		{name: "Longitude west", coord: "12311.12", hemisphere: "W", expected: -(123 + 11.12/60), valid: true},
		{name: "Lowercase hemisphere", coord: "4807.038", hemisphere: "s", expected: -(48 + 7.038/60), valid: true},
		{name: "Empty string", coord: "", hemisphere: "N"},
		{name: "Zero", coord: "0.0", hemisphere: "N"},
		{name: "Zero with padding", coord: "0000.0000", hemisphere: "E"},
		{name: "No decimal point", coord: "5016", hemisphere: "N"},
		{name: "Not a number", coord: "50a6.61", hemisphere: "N"},
		{name: "No degree digits", coord: "16.611", hemisphere: "N"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, ok := ToDecimal(tt.coord, tt.hemisphere)
			assert.Equal(t, tt.valid, ok)
			if tt.valid {
				assert.InDelta(t, tt.expected, value, 1e-9)
			} else {
				assert.Zero(t, value)
			}
		})
	}
}

func TestToDecimal_RoundTrip(t *testing.T) {
	for _, d := range []int{0, 1, 19, 50, 89, 123, 179} {
		for _, m := range []float64{0.01, 1.5, 7.25, 30, 59.99} {
			for _, h := range []string{"N", "S", "E", "W"} {
				coord := fmt.Sprintf("%d%05.2f", d, m)
				value, ok := ToDecimal(coord, h)
				if !assert.True(t, ok, coord) {
					continue
				}

				expected := float64(d) + m/60
				if h == "S" || h == "W" {
					expected = -expected
				}
				assert.InDelta(t, expected, value, 1e-9, coord+h)
			}
		}
	}
}
