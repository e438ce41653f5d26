package nmea

import (
	"fmt"
	"math"
	"strings"

	gonmea "github.com/adrianmo/go-nmea"
)

const microMinutesPerDegree = 60 * 1000000

// FromDecimal переводит десятичные градусы в координату NMEA с точностью до миллионной доли минуты
func FromDecimal(value float64, latitude bool) (coord string, hemisphere string) {
	width := 3
	hemisphere = "E"
	if value < 0 {
		hemisphere = "W"
	}
	if latitude {
		width = 2
		hemisphere = "N"
		if value < 0 {
			hemisphere = "S"
		}
	}

	micro := int64(math.Round(math.Abs(value) * microMinutesPerDegree))
	degrees := micro / microMinutesPerDegree
	rest := micro % microMinutesPerDegree

	return fmt.Sprintf("%0*d%02d.%06d", width, degrees, rest/1000000, rest%1000000), hemisphere
}

// Encode собирает предложение с контрольной суммой, например Encode("GN", TypeGGA, ...)
func Encode(talker, sentenceType string, fields ...string) string {
	payload := talker + sentenceType
	if len(fields) > 0 {
		payload += "," + strings.Join(fields, ",")
	}
	return "$" + payload + "*" + gonmea.Checksum(payload)
}
