// Package gps converts between decimal-degree coordinates and the
// degrees/minutes/seconds rational triples EXIF GPSIFD stores, validating
// coordinates with s2's LatLng so obviously bogus values (NaN, out of range,
// the classic "0,0" placeholder a flaky AI backend sometimes returns) never
// reach the codec.
package gps

import (
	"math"

	"github.com/golang/geo/s2"
)

// Rational is a numerator/denominator pair as EXIF RATIONAL entries store it.
type Rational struct {
	Num, Den uint32
}

// DMS is one axis's degrees/minutes/seconds rational triple plus its
// reference letter (N/S/E/W).
type DMS struct {
	Degrees, Minutes, Seconds Rational
	Ref                       byte
}

// Valid reports whether lat/lon form a usable coordinate: both finite,
// latitude in [-90,90], longitude in [-180,180], and not the (0,0)
// placeholder many vision backends emit when they found no location.
func Valid(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}
	if lat == 0 && lon == 0 {
		return false
	}
	ll := s2.LatLngFromDegrees(lat, lon)
	return ll.IsValid()
}

// ToDMS splits a decimal-degree coordinate into a DMS triple plus reference
// letter, seconds carried as a rational with a fixed denominator of 1000,
// i.e. rounded to the nearest thousandth of an arc-second.
func ToDMS(value float64, positiveRef, negativeRef byte) DMS {
	ref := positiveRef
	if value < 0 {
		ref = negativeRef
	}
	abs := math.Abs(value)
	deg := math.Floor(abs)
	minFloat := (abs - deg) * 60
	min := math.Floor(minFloat)
	secFloat := (minFloat - min) * 60

	const secDen = 1000
	secNum := uint32(math.Round(secFloat * secDen))
	if secNum >= 60*secDen {
		secNum = 0
		min++
	}
	if min >= 60 {
		min = 0
		deg++
	}

	return DMS{
		Degrees: Rational{Num: uint32(deg), Den: 1},
		Minutes: Rational{Num: uint32(min), Den: 1},
		Seconds: Rational{Num: secNum, Den: secDen},
		Ref:     ref,
	}
}

// FromDMS reassembles a decimal-degree value from a parsed DMS triple,
// negating it when ref is 'S' or 'W'.
func FromDMS(d DMS) float64 {
	degrees := ratio(d.Degrees)
	minutes := ratio(d.Minutes)
	seconds := ratio(d.Seconds)

	coord := degrees + minutes/60.0 + seconds/3600.0
	if d.Ref == 'S' || d.Ref == 'W' {
		coord = -coord
	}
	return coord
}

func ratio(r Rational) float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}
