// Package geo содержит геодезические вычисления.
package geo

import "math"

// EarthRadiusMeters задает средний радиус Земли в метрах.
const EarthRadiusMeters = 6371000.0

// Distance возвращает расстояние по большому кругу между двумя точками в метрах
// (формула гаверсинусов). Координаты задаются в градусах.
// Результат неотрицателен и симметричен; для совпадающих точек равен 0.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := toRadians(lat1)
	phi2 := toRadians(lat2)
	dPhi := toRadians(lat2 - lat1)
	dLambda := toRadians(lon2 - lon1)

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)

	// Погрешность округления может вывести a за пределы [0,1] для
	// антиподальных точек, тогда sqrt(1-a) даст NaN.
	a = math.Max(0, math.Min(1, a))

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusMeters * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
