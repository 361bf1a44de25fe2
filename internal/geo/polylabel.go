package geo

import "math"

// cell is one probe point in the polylabel grid-refinement search:
// its distance to the polygon boundary, and the best distance any
// point inside it could possibly achieve.
type cell struct {
	c        LngLat
	h        float64
	d        float64
	maxPossD float64
}

func newCell(c LngLat, h float64, rings [][]LngLat) cell {
	d := signedDistToPolygon(c, rings)
	return cell{c: c, h: h, d: d, maxPossD: d + h*math.Sqrt2}
}

// PoleOfInaccessibility returns the point inside polygon (a closed ring,
// first point == last point) that is maximally distant from the
// boundary — the anchor point the extract action uses to place a label
// node for an area or relation. rings[0] is the outer ring; any further
// rings are holes.
//
// This is a grid-refinement search (Mapbox's "polylabel" approach)
// rather than an exact solver: no library in the dependency pack
// implements this, so it is hand-rolled here deliberately (see
// DESIGN.md) rather than reached for stdlib by default.
func PoleOfInaccessibility(rings [][]LngLat) LngLat {
	outer := rings[0]
	if len(outer) == 0 {
		return LngLat{}
	}

	var extent Extent
	for _, p := range outer {
		extent.Extend(p)
	}

	cellSize := math.Min(extent.MaxLng-extent.MinLng, extent.MaxLat-extent.MinLat)
	if cellSize <= 0 {
		return outer[0]
	}
	h := cellSize / 2

	best := newCell(extent.Center(), 0, rings)
	if c, ok := polygonCentroid(outer); ok {
		centroid := newCell(c, h, rings)
		if centroid.maxPossD > best.maxPossD {
			best = centroid
		}
	}

	var cells []cell
	for x := extent.MinLng; x < extent.MaxLng; x += cellSize {
		for y := extent.MinLat; y < extent.MaxLat; y += cellSize {
			cells = append(cells, newCell(LngLat{Lng: x + h, Lat: y + h}, h, rings))
		}
	}

	const maxIterations = 5000
	const precision = 1e-8
	for iter := 0; len(cells) > 0 && iter < maxIterations; iter++ {
		// pop the most promising cell (linear scan; polygon counts in
		// this domain are small enough that a heap is not worth it)
		bi := 0
		for i := range cells {
			if cells[i].maxPossD > cells[bi].maxPossD {
				bi = i
			}
		}
		cur := cells[bi]
		cells = append(cells[:bi], cells[bi+1:]...)

		if cur.d > best.d {
			best = cur
		}
		if cur.maxPossD-best.d <= precision {
			continue
		}

		h2 := cur.h / 2
		if h2 < precision {
			continue
		}
		cells = append(cells,
			newCell(LngLat{Lng: cur.c.Lng - h2, Lat: cur.c.Lat - h2}, h2, rings),
			newCell(LngLat{Lng: cur.c.Lng + h2, Lat: cur.c.Lat - h2}, h2, rings),
			newCell(LngLat{Lng: cur.c.Lng - h2, Lat: cur.c.Lat + h2}, h2, rings),
			newCell(LngLat{Lng: cur.c.Lng + h2, Lat: cur.c.Lat + h2}, h2, rings),
		)
	}

	return best.c
}

// polygonCentroid returns the area-weighted centroid of a closed ring.
// ok is false for a degenerate (zero-area) ring.
func polygonCentroid(ring []LngLat) (LngLat, bool) {
	var area, x, y float64
	for i := 0; i < len(ring)-1; i++ {
		p1, p2 := ring[i], ring[i+1]
		f := p1.Lng*p2.Lat - p2.Lng*p1.Lat
		x += (p1.Lng + p2.Lng) * f
		y += (p1.Lat + p2.Lat) * f
		area += f
	}
	if area == 0 {
		return LngLat{}, false
	}
	area *= 0.5
	return LngLat{Lng: x / (6 * area), Lat: y / (6 * area)}, true
}

// signedDistToPolygon is positive inside the outer ring (and outside
// every hole), negative otherwise.
func signedDistToPolygon(p LngLat, rings [][]LngLat) float64 {
	inside := false
	minDistSq := math.Inf(1)

	for _, ring := range rings {
		for i, j := 0, len(ring)-1; i < len(ring); j, i = i, i+1 {
			a, b := ring[i], ring[j]
			if (a.Lat > p.Lat) != (b.Lat > p.Lat) &&
				p.Lng < (b.Lng-a.Lng)*(p.Lat-a.Lat)/(b.Lat-a.Lat)+a.Lng {
				inside = !inside
			}
			d := segPointDistSq(p, a, b)
			if d < minDistSq {
				minDistSq = d
			}
		}
	}

	d := math.Sqrt(minDistSq)
	if inside {
		return d
	}
	return -d
}

func segPointDistSq(p, a, b LngLat) float64 {
	foot := ProjectPointOnSegment(p, a, b)
	dx, dy := p.Lng-foot.Lng, p.Lat-foot.Lat
	return dx*dx + dy*dy
}
