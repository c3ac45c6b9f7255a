package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/depthcloud/internal/config"
	"github.com/banshee-data/depthcloud/internal/ingest"
	"github.com/banshee-data/depthcloud/internal/pointcloud"
	"github.com/banshee-data/depthcloud/internal/visualiser"
)

func runReplay(cfg *config.Config, args []string, stdout io.Writer) error {
	fs := pflag.NewFlagSet("replay", pflag.ContinueOnError)
	in := fs.StringP("in", "i", "", "snapshot stream to read (required)")
	htmlOut := fs.String("html", "", "write an interactive scatter of the last valid frame")
	pngOut := fs.String("png", "", "write a top-down plot of the last valid frame")
	maxPoints := fs.Int("max-points", 20000, "downsample the HTML scatter to at most this many points")
	if help, err := parseCommandFlags(fs, args); help || err != nil {
		return err
	}
	if *in == "" {
		return fmt.Errorf("replay: --in is required")
	}

	f, err := os.Open(*in)
	if err != nil {
		return err
	}
	defer f.Close()
	sr := pointcloud.NewSnapshotReader(bufio.NewReader(f))

	var res replayResult
	if cfg.GetRecordType() == config.RecordXYZ {
		res, err = replay[pointcloud.PointXYZ](sr, cfg.GetBufferCapacity(), cfg.GetMailboxDepth())
	} else {
		res, err = replay[pointcloud.PointXYZConfidence](sr, cfg.GetBufferCapacity(), cfg.GetMailboxDepth())
	}
	if err != nil {
		return err
	}

	st := res.stats
	fmt.Fprintf(stdout, "frames=%d invalid=%d errors=%d drops=%d last_frame=%d last_ingest=%s\n",
		st.FramesIngested, st.InvalidFrames, st.PopulateErrors, st.Drops, st.LastFrameID, st.LastIngestDuration)
	if len(res.positions) == 0 {
		fmt.Fprintln(stdout, "no valid frame to render")
		return nil
	}
	fmt.Fprintf(stdout, "last valid frame %d: %d points, bounds %v..%v, centroid %v\n",
		res.frameID, len(res.positions), res.lo, res.hi, res.centroid)

	if *htmlOut != "" {
		hf, err := os.Create(*htmlOut)
		if err != nil {
			return err
		}
		defer hf.Close()
		title := fmt.Sprintf("Frame %d", res.frameID)
		if err := visualiser.RenderCloudHTML(hf, res.positions, title, *maxPoints); err != nil {
			return err
		}
		if err := hf.Close(); err != nil {
			return err
		}
	}
	if *pngOut != "" {
		title := fmt.Sprintf("Frame %d (top view)", res.frameID)
		if err := visualiser.RenderCloudPNG(res.positions, title, *pngOut); err != nil {
			return err
		}
	}
	return nil
}

type replayResult struct {
	stats     ingest.Stats
	frameID   int64
	positions []r3.Vec
	lo, hi    r3.Vec
	centroid  r3.Vec
}

// replay feeds every snapshot through an ingest stage sized for the stream
// and keeps the last valid frame the subscriber received.
func replay[T any, PT pointcloud.Record[T]](sr *pointcloud.SnapshotReader, capacity, mailboxDepth int) (replayResult, error) {
	var (
		res    replayResult
		stage  *ingest.Stage[T, PT]
		read   func() *pointcloud.Buffer[T, PT]
		cancel func()
		last   *pointcloud.Buffer[T, PT]
	)

	for {
		snap, err := sr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, err
		}
		samples, err := snap.Samples()
		if err != nil {
			return res, err
		}

		if stage == nil {
			if snap.Metadata == nil {
				return res, fmt.Errorf("snapshot %s: %w", snap.ID, pointcloud.ErrNilMetadata)
			}
			stage, err = ingest.NewStage[T, PT](ingest.Config{
				Capacity:     max(capacity, snap.Descriptor.Size),
				Stride:       snap.Stride,
				Metadata:     snap.Metadata,
				MailboxDepth: mailboxDepth,
			})
			if err != nil {
				return res, err
			}
			defer stage.Close()
			read, cancel = stage.Subscribe()
			defer cancel()
		}

		// Contract errors are counted by the stage; keep replaying.
		if err := stage.Ingest(snap.Descriptor, samples); err != nil {
			continue
		}
		if frame := read(); frame != nil && frame.Valid() {
			last = frame
		}
	}

	if stage == nil {
		return res, errors.New("replay: stream holds no snapshots")
	}
	res.stats = stage.Stats()
	if last != nil {
		res.frameID = last.FrameID()
		res.positions = pointcloud.Positions(last, nil)
		res.lo, res.hi, _ = pointcloud.Bounds(last)
		res.centroid, _ = pointcloud.Centroid(last)
	}
	return res, nil
}
