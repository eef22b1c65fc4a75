// Package vision runs the visual description pass over processing chunks.
// Chunks are described sequentially; a failing chunk is dropped with a log
// line rather than aborting the batch, so one bad segment never costs the
// whole ingestion.
package vision

import (
	"context"
	"time"

	"vidmind/internal/logging"
	"vidmind/internal/types"
)

// Driver describes chunks by sampling frames and calling the vision service.
type Driver struct {
	sampler   types.MediaSampler
	describer types.VisionDescriber

	// FramesPerSecond and MaxFrames bound the sampling per chunk.
	FramesPerSecond float64
	MaxFrames       int

	// ChunkTimeout bounds sampling plus description for one chunk.
	ChunkTimeout time.Duration
}

// NewDriver builds a driver with production defaults.
func NewDriver(sampler types.MediaSampler, describer types.VisionDescriber) *Driver {
	return &Driver{
		sampler:         sampler,
		describer:       describer,
		FramesPerSecond: 1.0,
		MaxFrames:       8,
		ChunkTimeout:    90 * time.Second,
	}
}

// DescribeChunks runs the description pass over all chunks of a video.
// The returned slice contains only the chunks that produced a description;
// order is preserved. The error is non-nil only when the context is done.
func (d *Driver) DescribeChunks(ctx context.Context, videoPath string, chunks []types.ProcessingChunk) ([]types.DescribedChunk, error) {
	timer := logging.StartTimer(logging.CategoryVision, "DescribeChunks")
	defer timer.Stop()

	described := make([]types.DescribedChunk, 0, len(chunks))
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return described, err
		}

		dc, ok := d.describeOne(ctx, videoPath, chunk, i)
		if ok {
			described = append(described, dc)
		}
	}

	logging.Vision("Described %d/%d chunks of %s", len(described), len(chunks), videoPath)
	return described, nil
}

// describeOne samples and describes a single chunk. Failures log a warning
// and drop the chunk.
func (d *Driver) describeOne(ctx context.Context, videoPath string, chunk types.ProcessingChunk, index int) (types.DescribedChunk, bool) {
	ctx, cancel := context.WithTimeout(ctx, d.ChunkTimeout)
	defer cancel()

	frames, err := d.sampler.Sample(ctx, videoPath, chunk.Start, chunk.End, d.FramesPerSecond, d.MaxFrames)
	if err != nil {
		logging.Vision("Chunk %d [%.1f,%.1f]: frame sampling failed, dropping: %v", index, chunk.Start, chunk.End, err)
		return types.DescribedChunk{}, false
	}
	if len(frames) == 0 {
		logging.Vision("Chunk %d [%.1f,%.1f]: no frames extracted, skipping", index, chunk.Start, chunk.End)
		return types.DescribedChunk{}, false
	}

	paths := make([]string, len(frames))
	for i, f := range frames {
		paths[i] = f.Path
	}

	description, err := d.describer.Describe(ctx, paths, chunk.ASRText)
	if err != nil {
		logging.Vision("Chunk %d [%.1f,%.1f]: description failed, dropping: %v", index, chunk.Start, chunk.End, err)
		return types.DescribedChunk{}, false
	}
	if description == "" {
		logging.Vision("Chunk %d [%.1f,%.1f]: empty description, dropping", index, chunk.Start, chunk.End)
		return types.DescribedChunk{}, false
	}

	return types.DescribedChunk{
		Start:             chunk.Start,
		End:               chunk.End,
		VisualDescription: description,
		ASRText:           chunk.ASRText,
		FrameCount:        len(frames),
	}, true
}
