package pointcloud

// FrameDescriptor describes one sensor capture as delivered by the interop
// layer. The buffer copies it verbatim during population.
type FrameDescriptor struct {
	Valid   bool  `json:"valid" cbor:"valid"`
	Size    int   `json:"size" cbor:"size"`
	Height  int   `json:"height" cbor:"height"`
	Width   int   `json:"width" cbor:"width"`
	FrameID int64 `json:"frame_id" cbor:"frame_id"`

	// Latency instrumentation marks, in seconds on the interop layer's clock.
	ArrivalTimestamp    float64 `json:"arrival_ts" cbor:"arrival_ts"`
	CompletionTimestamp float64 `json:"completion_ts" cbor:"completion_ts"`
}

// Metadata is the sensor-level description shared by every frame a buffer
// holds. Buffers keep a reference to it and never copy or modify it.
type Metadata struct {
	SensorID   string  `json:"sensor_id,omitempty" cbor:"sensor_id,omitempty"`
	Width      int     `json:"width" cbor:"width"`
	Height     int     `json:"height" cbor:"height"`
	FocalX     float64 `json:"focal_x,omitempty" cbor:"focal_x,omitempty"`
	FocalY     float64 `json:"focal_y,omitempty" cbor:"focal_y,omitempty"`
	PrincipalX float64 `json:"principal_x,omitempty" cbor:"principal_x,omitempty"`
	PrincipalY float64 `json:"principal_y,omitempty" cbor:"principal_y,omitempty"`
	DepthScale float64 `json:"depth_scale,omitempty" cbor:"depth_scale,omitempty"`
}
