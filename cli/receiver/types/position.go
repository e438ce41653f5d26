package types

import "math"

// EarthRadius радиус Земли в метрах
const EarthRadius = 6371000.0

type Position2D struct {
	Latitude  float64
	Longitude float64
}

// Haversine расстояние по большому кругу в метрах между двумя точками в десятичных градусах
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	// погрешность округления может вывести a за [0;1]
	a = math.Max(0, math.Min(1, a))

	return EarthRadius * 2 * math.Asin(math.Sqrt(a))
}

func (p Position2D) DistanceTo(position Position2D) float64 {
	return Haversine(p.Latitude, p.Longitude, position.Latitude, position.Longitude)
}
