// Package testutil provides shared test helpers and synthetic sensor data.
package testutil

import (
	"testing"

	"github.com/banshee-data/depthcloud/internal/pointcloud"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t testing.TB, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// SyntheticPlane returns width*height raw samples of a flat surface depth
// metres in front of the sensor, laid out row-major with stride samples per
// point. Each point is (x, y, depth, confidence) back-projected through a
// pinhole with focal length width, so the plane spans roughly one metre per
// metre of depth. Confidence falls off towards the image edges. Samples past
// the fourth in each stride are zero. Strides below 4 are treated as 4.
func SyntheticPlane(width, height int, depth float32, stride int) []float32 {
	if stride < 4 {
		stride = 4
	}
	if width <= 0 || height <= 0 {
		return nil
	}

	raw := make([]float32, width*height*stride)
	focal := float32(width)
	cx, cy := float32(width-1)/2, float32(height-1)/2
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			u, v := float32(col)-cx, float32(row)-cy
			off := (row*width + col) * stride
			raw[off] = u * depth / focal
			raw[off+1] = v * depth / focal
			raw[off+2] = depth
			raw[off+3] = 1 - (abs(u)/float32(width)+abs(v)/float32(height))
		}
	}
	return raw
}

// SyntheticFrame describes a complete frame of SyntheticPlane samples.
func SyntheticFrame(frameID int64, width, height int, arrival float64) pointcloud.FrameDescriptor {
	return pointcloud.FrameDescriptor{
		Valid:               true,
		Size:                width * height,
		Width:               width,
		Height:              height,
		FrameID:             frameID,
		ArrivalTimestamp:    arrival,
		CompletionTimestamp: arrival + 0.005,
	}
}

// SyntheticMetadata returns sensor metadata matching SyntheticPlane.
func SyntheticMetadata(width, height int) *pointcloud.Metadata {
	return &pointcloud.Metadata{
		SensorID:   "synthetic",
		Width:      width,
		Height:     height,
		FocalX:     float64(width),
		FocalY:     float64(width),
		PrincipalX: float64(width-1) / 2,
		PrincipalY: float64(height-1) / 2,
		DepthScale: 1,
	}
}

func abs(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}
