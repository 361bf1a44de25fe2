// Package geo provides the coordinate-math primitives the map-topology
// core assumes are available externally: distance, bearing, and the
// signed turn angle used by turn-restriction inference. It wraps
// golang/geo (s2) for the spherical math rather than hand-rolling great
// circle formulas.
package geo

import (
	"math"

	"github.com/golang/geo/s2"
)

// LngLat is a WGS84 longitude/latitude pair, matching the Node.Loc field
// order used throughout the entity model.
type LngLat struct {
	Lng float64
	Lat float64
}

func (p LngLat) point() s2.Point {
	return s2.PointFromLatLng(s2.LatLngFromDegrees(p.Lat, p.Lng))
}

// DistanceMeters returns the great-circle distance between two points.
func DistanceMeters(a, b LngLat) float64 {
	const earthRadiusMeters = 6371008.8
	angle := a.point().Distance(b.point())
	return float64(angle) * earthRadiusMeters
}

// BearingDegrees returns the initial bearing from a to b in [0, 360).
func BearingDegrees(a, b LngLat) float64 {
	la1 := a.Lat * math.Pi / 180
	la2 := b.Lat * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	y := math.Sin(dLng) * math.Cos(la2)
	x := math.Cos(la1)*math.Sin(la2) - math.Sin(la1)*math.Cos(la2)*math.Cos(dLng)
	theta := math.Atan2(y, x)
	deg := theta*180/math.Pi + 360
	return math.Mod(deg, 360)
}

// TurnAngleDegrees computes the signed angle between the segment
// via->from and the segment via->to, normalized into [0, 360). This is
// the angle inferRestriction classifies: 0 is a U-turn back the way you
// came, 180 is dead straight ahead.
func TurnAngleDegrees(via, from, to LngLat) float64 {
	inbound := BearingDegrees(via, from)
	outbound := BearingDegrees(via, to)
	angle := math.Mod(outbound-inbound+360, 360)
	return angle
}

// Extent is an axis-aligned bounding box in lng/lat space, min/max
// inclusive. A zero-value Extent is empty; use Extend to build one up.
type Extent struct {
	MinLng, MinLat float64
	MaxLng, MaxLat float64
	initialized    bool
}

// Extend grows the extent to include p, initializing it on first use.
func (e *Extent) Extend(p LngLat) {
	if !e.initialized {
		e.MinLng, e.MaxLng = p.Lng, p.Lng
		e.MinLat, e.MaxLat = p.Lat, p.Lat
		e.initialized = true
		return
	}
	if p.Lng < e.MinLng {
		e.MinLng = p.Lng
	}
	if p.Lng > e.MaxLng {
		e.MaxLng = p.Lng
	}
	if p.Lat < e.MinLat {
		e.MinLat = p.Lat
	}
	if p.Lat > e.MaxLat {
		e.MaxLat = p.Lat
	}
}

// Intersects reports whether two extents overlap.
func (e Extent) Intersects(o Extent) bool {
	if !e.initialized || !o.initialized {
		return false
	}
	return e.MinLng <= o.MaxLng && o.MinLng <= e.MaxLng &&
		e.MinLat <= o.MaxLat && o.MinLat <= e.MaxLat
}

// Center returns the midpoint of the extent's diagonal.
func (e Extent) Center() LngLat {
	return LngLat{Lng: (e.MinLng + e.MaxLng) / 2, Lat: (e.MinLat + e.MaxLat) / 2}
}

// ProjectPointOnSegment returns the closest point on segment a-b to p,
// computed in the equirectangular-flattened plane (adequate at editor
// zoom levels, same approximation the teacher's geometry caches make by
// treating lng/lat as planar for on-screen math).
func ProjectPointOnSegment(p, a, b LngLat) LngLat {
	ax, ay := a.Lng, a.Lat
	bx, by := b.Lng, b.Lat
	px, py := p.Lng, p.Lat

	dx, dy := bx-ax, by-ay
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return a
	}
	t := ((px-ax)*dx + (py-ay)*dy) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return LngLat{Lng: ax + t*dx, Lat: ay + t*dy}
}

// PerpendicularDistance is the planar distance from p to its projection
// onto segment a-b, in the same units as DistanceMeters (meters),
// computed via the projected point and the haversine distance to it.
func PerpendicularDistance(p, a, b LngLat) float64 {
	foot := ProjectPointOnSegment(p, a, b)
	return DistanceMeters(p, foot)
}

// Lerp linearly interpolates between a and b at t in [0, 1].
func Lerp(a, b LngLat, t float64) LngLat {
	return LngLat{
		Lng: a.Lng + (b.Lng-a.Lng)*t,
		Lat: a.Lat + (b.Lat-a.Lat)*t,
	}
}
