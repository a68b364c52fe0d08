package datastructure

type BoundingBox struct {
	minLat, minLon float64
	maxLat, maxLon float64
}

func NewBoundingBox(minLat, minLon, maxLat, maxLon float64) *BoundingBox {
	return &BoundingBox{minLat: minLat,
		minLon: minLon,
		maxLat: maxLat,
		maxLon: maxLon}
}

func (b *BoundingBox) GetMinLat() float64 {
	return b.minLat
}

func (b *BoundingBox) GetMinLon() float64 {
	return b.minLon
}

func (b *BoundingBox) GetMaxLat() float64 {
	return b.maxLat
}

func (b *BoundingBox) GetMaxLon() float64 {
	return b.maxLon
}

func (b *BoundingBox) Extend(lat, lon float64) {
	b.minLat = min(b.minLat, lat)
	b.minLon = min(b.minLon, lon)
	b.maxLat = max(b.maxLat, lat)
	b.maxLon = max(b.maxLon, lon)
}

// Pad. grow every side by deg degrees.
func (b *BoundingBox) Pad(deg float64) *BoundingBox {
	return NewBoundingBox(b.minLat-deg, b.minLon-deg, b.maxLat+deg, b.maxLon+deg)
}

func (b *BoundingBox) Contains(lat, lon float64) bool {
	return lat >= b.minLat && lat <= b.maxLat && lon >= b.minLon && lon <= b.maxLon
}
