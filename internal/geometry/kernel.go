package geometry

// PointInRing reports whether the point (lon, lat) lies inside the ring using
// a ray-cast parity test with a horizontal ray toward +inf. Boundary points
// follow the half-open convention: a point on the upper edge is outside, on
// the lower edge inside, so a point on an edge shared by two polygons belongs
// to exactly one of them.
func PointInRing(lon, lat float64, ring Ring) bool {
	n := len(ring)
	if n == 0 {
		return false
	}

	inside := false
	j := n - 1
	for i := 0; i < n; i++ {
		p1x, p1y := ring[j][0], ring[j][1]
		p2x, p2y := ring[i][0], ring[i][1]

		if (p1y > lat) != (p2y > lat) &&
			lon < (p2x-p1x)*(lat-p1y)/(p2y-p1y)+p1x {
			inside = !inside
		}
		j = i
	}
	return inside
}

// PointInPolygon reports whether the point is inside the polygon's exterior
// ring and outside all of its holes.
func PointInPolygon(lon, lat float64, polygon Polygon) bool {
	if len(polygon) == 0 || !PointInRing(lon, lat, polygon[0]) {
		return false
	}

	for _, hole := range polygon[1:] {
		if PointInRing(lon, lat, hole) {
			return false
		}
	}
	return true
}

// PointInMultiPolygon reports whether the point is inside any member polygon.
func PointInMultiPolygon(lon, lat float64, mp MultiPolygon) bool {
	for _, polygon := range mp {
		if PointInPolygon(lon, lat, polygon) {
			return true
		}
	}
	return false
}

// FindContainingFeature scans the collection in order and returns the first
// feature whose Polygon or MultiPolygon geometry contains the point. Other
// geometry types are skipped. Returns nil when no feature contains the point.
func FindContainingFeature(lon, lat float64, fc *FeatureCollection) *Feature {
	if fc == nil {
		return nil
	}

	for i := range fc.Features {
		feature := &fc.Features[i]
		if feature.Geometry == nil {
			continue
		}

		switch feature.Geometry.Type {
		case "Polygon":
			polygon, err := feature.Geometry.Polygon()
			if err != nil {
				continue
			}
			if PointInPolygon(lon, lat, polygon) {
				return feature
			}
		case "MultiPolygon":
			mp, err := feature.Geometry.MultiPolygon()
			if err != nil {
				continue
			}
			if PointInMultiPolygon(lon, lat, mp) {
				return feature
			}
		}
	}
	return nil
}
