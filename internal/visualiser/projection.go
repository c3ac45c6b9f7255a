// Package visualiser renders debug images of point clouds and grid boxes.
package visualiser

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// Projection flattens 3D points onto an axis-aligned plane.
type Projection uint8

const (
	// ProjectXY looks along +Z (front view).
	ProjectXY Projection = iota
	// ProjectXZ looks down -Y (top view).
	ProjectXZ
	// ProjectZY looks along +X (side view).
	ProjectZY
)

// ParseProjection accepts "xy", "xz" or "zy".
func ParseProjection(s string) (Projection, error) {
	switch strings.ToLower(s) {
	case "xy":
		return ProjectXY, nil
	case "xz":
		return ProjectXZ, nil
	case "zy":
		return ProjectZY, nil
	}
	return 0, fmt.Errorf("unknown projection %q (want xy, xz or zy)", s)
}

func (p Projection) String() string {
	switch p {
	case ProjectXY:
		return "xy"
	case ProjectXZ:
		return "xz"
	case ProjectZY:
		return "zy"
	}
	return fmt.Sprintf("Projection(%d)", uint8(p))
}

// Project returns the 2D plot coordinates of v.
func (p Projection) Project(v r3.Vec) (x, y float64) {
	switch p {
	case ProjectXZ:
		return v.X, v.Z
	case ProjectZY:
		return v.Z, v.Y
	default:
		return v.X, v.Y
	}
}

// axisLabels names the horizontal and vertical plot axes.
func (p Projection) axisLabels() (string, string) {
	switch p {
	case ProjectXZ:
		return "X (m)", "Z (m)"
	case ProjectZY:
		return "Z (m)", "Y (m)"
	default:
		return "X (m)", "Y (m)"
	}
}
