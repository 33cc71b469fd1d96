package location

// Coordinate is a lat/lng pair in degrees.
type Coordinate struct {
	Lat float64
	Lng float64
}

// Centroid returns the arithmetic mean of latitudes and of longitudes.
// ok is false for an empty input.
func Centroid(points []Coordinate) (c Coordinate, ok bool) {
	if len(points) == 0 {
		return Coordinate{}, false
	}
	var sumLat, sumLng float64
	for _, p := range points {
		sumLat += p.Lat
		sumLng += p.Lng
	}
	n := float64(len(points))
	return Coordinate{Lat: sumLat / n, Lng: sumLng / n}, true
}
