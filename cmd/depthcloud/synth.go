package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/banshee-data/depthcloud/internal/config"
	"github.com/banshee-data/depthcloud/internal/pointcloud"
	"github.com/banshee-data/depthcloud/internal/testutil"
)

func runSynth(cfg *config.Config, args []string, stdout io.Writer) error {
	fs := pflag.NewFlagSet("synth", pflag.ContinueOnError)
	out := fs.StringP("out", "o", "", "snapshot stream to write (required)")
	frames := fs.IntP("frames", "n", 30, "number of frames")
	width := fs.Int("width", 64, "frame width in samples")
	height := fs.Int("height", 48, "frame height in samples")
	compression := fs.String("compression", cfg.GetSnapshotCompression(), "payload compression: none, lz4, zstd or bg4_lz4")
	invalidEvery := fs.Int("invalid-every", 0, "mark every Nth frame invalid (0 disables)")
	if help, err := parseCommandFlags(fs, args); help || err != nil {
		return err
	}

	if *out == "" {
		return fmt.Errorf("synth: --out is required")
	}
	if *width <= 0 || *height <= 0 || *frames < 0 {
		return fmt.Errorf("synth: width, height and frames must be positive")
	}
	c, err := pointcloud.ParseCompression(*compression)
	if err != nil {
		return err
	}

	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	defer f.Close()
	bw := bufio.NewWriter(f)

	opts := synthOptions{
		frames:       *frames,
		width:        *width,
		height:       *height,
		stride:       max(cfg.GetStride(), 4),
		compression:  c,
		invalidEvery: *invalidEvery,
	}
	var n int
	if cfg.GetRecordType() == config.RecordXYZ {
		n, err = writeSynthetic[pointcloud.PointXYZ](bw, opts)
	} else {
		n, err = writeSynthetic[pointcloud.PointXYZConfidence](bw, opts)
	}
	if err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "wrote %d frames (%dx%d, %s) to %s\n", n, opts.width, opts.height, c, *out)
	return nil
}

type synthOptions struct {
	frames, width, height int
	stride                int
	compression           pointcloud.Compression
	invalidEvery          int
}

// writeSynthetic populates one buffer per frame from a receding plane and
// appends its snapshot to w.
func writeSynthetic[T any, PT pointcloud.Record[T]](w io.Writer, opts synthOptions) (int, error) {
	md := testutil.SyntheticMetadata(opts.width, opts.height)
	b := pointcloud.NewBuffer[T, PT](opts.width*opts.height, md)
	sw := pointcloud.NewSnapshotWriter(w)

	for i := 1; i <= opts.frames; i++ {
		desc := testutil.SyntheticFrame(int64(i), opts.width, opts.height, float64(i)/30)
		if opts.invalidEvery > 0 && i%opts.invalidEvery == 0 {
			desc.Valid = false
		}
		raw := testutil.SyntheticPlane(opts.width, opts.height, 1+0.05*float32(i), opts.stride)
		if err := b.PopulateFromInterop(desc, raw, opts.stride); err != nil {
			return sw.Count(), err
		}
		snap, err := pointcloud.EncodeSnapshot(b, opts.stride, opts.compression)
		if err != nil {
			return sw.Count(), err
		}
		if err := sw.Write(snap); err != nil {
			return sw.Count(), err
		}
	}
	return sw.Count(), nil
}
