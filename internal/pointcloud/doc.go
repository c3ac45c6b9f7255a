// Package pointcloud holds fixed-capacity point cloud buffers staged from
// depth-sensor output.
//
// A Buffer is allocated once and repopulated in place for every sensor frame
// via PopulateFromInterop. Only the first Size records belong to the current
// frame; records past Size are stale. A buffer whose Valid flag is false must
// be discarded by consumers regardless of its size.
//
// Buffers are single-owner and carry no locks. A producer hands a frame to a
// consumer on another goroutine by deep copying it (DeepCopyTo or Clone) and
// keeps mutating its own buffer for the next frame. PopulateFromInterop and
// DeepCopyTo must not run concurrently with any other access to the same
// buffer.
package pointcloud
