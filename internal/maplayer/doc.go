// Package maplayer owns the rain intensity source/layer pair on a map surface.
//
// The [Manager] waits for two latches: the surface's one-time ready signal
// and the arrival of classified data. Once both have fired it creates the
// GeoJSON source and the circle layer exactly once; every later data arrival
// replaces the source's feature collection in place. Data that arrives before
// the surface is ready is held, and only the latest collection is applied
// when the ready signal fires.
//
// Features carry two values:
//
//	bucket     classifier output, one of 0, 0.5, 1
//	intensity  ramp input, bucket × 2, one of 0, 1, 2
//
// Both style ramps are keyed on "intensity".
package maplayer
