package geo

import "testing"

func TestTurnAngleDegrees(t *testing.T) {
	via := LngLat{Lng: 0, Lat: 0}

	cases := []struct {
		name     string
		from, to LngLat
		want     float64
		tol      float64
	}{
		{"u-turn", LngLat{Lng: 0, Lat: -0.01}, LngLat{Lng: 0, Lat: -0.01}, 0, 1},
		{"right turn", LngLat{Lng: 0, Lat: -0.01}, LngLat{Lng: 0.01, Lat: 0}, 270, 2},
		{"straight on", LngLat{Lng: 0, Lat: -0.01}, LngLat{Lng: 0, Lat: 0.01}, 180, 1},
		{"left turn", LngLat{Lng: 0, Lat: -0.01}, LngLat{Lng: -0.01, Lat: 0}, 90, 2},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := TurnAngleDegrees(via, tc.from, tc.to)
			diff := got - tc.want
			if diff < -tc.tol || diff > tc.tol {
				t.Errorf("TurnAngleDegrees(%v,%v,%v) = %v, want ~%v", via, tc.from, tc.to, got, tc.want)
			}
		})
	}
}

func TestPoleOfInaccessibilitySquare(t *testing.T) {
	square := []LngLat{
		{Lng: 0, Lat: 0},
		{Lng: 10, Lat: 0},
		{Lng: 10, Lat: 10},
		{Lng: 0, Lat: 10},
		{Lng: 0, Lat: 0},
	}

	p := PoleOfInaccessibility([][]LngLat{square})
	if p.Lng < 3 || p.Lng > 7 || p.Lat < 3 || p.Lat > 7 {
		t.Errorf("expected pole near center of square, got %v", p)
	}
}

func TestExtentIntersects(t *testing.T) {
	var a, b Extent
	a.Extend(LngLat{Lng: 0, Lat: 0})
	a.Extend(LngLat{Lng: 1, Lat: 1})
	b.Extend(LngLat{Lng: 0.5, Lat: 0.5})
	b.Extend(LngLat{Lng: 2, Lat: 2})

	if !a.Intersects(b) {
		t.Error("expected overlapping extents to intersect")
	}

	var c Extent
	c.Extend(LngLat{Lng: 5, Lat: 5})
	c.Extend(LngLat{Lng: 6, Lat: 6})
	if a.Intersects(c) {
		t.Error("expected disjoint extents to not intersect")
	}
}
