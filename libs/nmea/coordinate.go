package nmea

import (
	"strconv"
	"strings"
)

// KnotsToKmh множитель перевода узлов в км/ч
const KnotsToKmh = 1.852

// ToDecimal переводит координату NMEA (DDMM.MMMM или DDDMM.MMMM) с полушарием в десятичные градусы.
// Второе значение false означает, что координата невалидна: пустая строка, ноль,
// нет десятичной точки или нет цифр градусов.
func ToDecimal(coord string, hemisphere string) (float64, bool) {
	coord = strings.TrimSpace(coord)
	if coord == "" {
		return 0, false
	}

	value, err := strconv.ParseFloat(coord, 64)
	if err != nil || value == 0 {
		return 0, false
	}

	dot := strings.IndexByte(coord, '.')
	if dot < 3 {
		return 0, false
	}

	degrees, err := strconv.ParseFloat(coord[:dot-2], 64)
	if err != nil {
		return 0, false
	}
	minutes, err := strconv.ParseFloat(coord[dot-2:], 64)
	if err != nil {
		return 0, false
	}

	decimal := degrees + minutes/60
	switch strings.ToUpper(strings.TrimSpace(hemisphere)) {
	case "S", "W":
		decimal = -decimal
	}

	return decimal, true
}
