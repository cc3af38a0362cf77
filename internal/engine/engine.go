package engine

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Sayannath2003/local-text-gif-generator/internal/animation"
	"github.com/Sayannath2003/local-text-gif-generator/internal/background"
	"github.com/Sayannath2003/local-text-gif-generator/internal/config"
	"github.com/Sayannath2003/local-text-gif-generator/internal/motion"
	"github.com/Sayannath2003/local-text-gif-generator/internal/storage"
	"github.com/Sayannath2003/local-text-gif-generator/internal/system"
	"github.com/Sayannath2003/local-text-gif-generator/internal/text"
)

// StyleDescriptor describes one rendered artifact.
type StyleDescriptor struct {
	Index      int    `json:"index" yaml:"index"`
	Name       string `json:"name" yaml:"name"`
	Path       string `json:"path" yaml:"path"`
	Background string `json:"background" yaml:"background"`
	Motion     string `json:"motion" yaml:"motion"`
}

// StyleMatrix renders the prompt once for every (background, motion) pair,
// up to Config.MaxStyles pairs.
type StyleMatrix struct {
	Config      *config.Config
	Font        *text.Font
	Encoder     animation.Encoder
	Store       storage.Store
	Backgrounds []background.Background
	Motions     []motion.Motion
	Logger      *slog.Logger

	cache *text.Cache
}

func NewStyleMatrix(cfg *config.Config, font *text.Font, enc animation.Encoder, store storage.Store) *StyleMatrix {
	return &StyleMatrix{
		Config:      cfg,
		Font:        font,
		Encoder:     enc,
		Store:       store,
		Backgrounds: background.Catalog(),
		Motions:     motion.Catalog(),
		cache:       text.NewCache(),
	}
}

// StyleName is the display name of the style at the zero-based index i.
func StyleName(i int) string {
	return fmt.Sprintf("Style %d", i+1)
}

// Stats summarizes one Run.
type Stats struct {
	Prompt  string
	Styles  int
	OK      int
	Failed  int
	Workers int
	Total   time.Duration
	Render  time.Duration
	Encode  time.Duration
	Store   time.Duration
}

func (s *StyleMatrix) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func (s *StyleMatrix) geometry() text.Geometry {
	return text.Geometry{
		Width:   s.Config.Width,
		Height:  s.Config.Height,
		Padding: s.Config.Padding,
		LineGap: s.Config.LineGap,
	}
}

func (s *StyleMatrix) workers(total int) int {
	n := s.Config.Workers
	if n <= 0 {
		perWorker := system.FrameBytes(s.Config.Width, s.Config.Height) * uint64(s.Config.FrameCount)
		n = system.RecommendedWorkers(perWorker)
	}
	if n > total {
		n = total
	}
	return n
}

// PoolSize is the number of workers a full Run starts.
func (s *StyleMatrix) PoolSize() int {
	total := min(len(s.Backgrounds)*len(s.Motions), s.Config.MaxStyles)
	if total < 1 {
		return 1
	}
	return s.workers(total)
}

type styleJob struct {
	index int
	bg    background.Background
	mo    motion.Motion
}

// Run renders the style catalog for prompt. The returned descriptors are in
// style index order; styles that fail are logged and left out. Cancelling
// ctx aborts the batch.
func (s *StyleMatrix) Run(ctx context.Context, prompt string) ([]StyleDescriptor, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, nil
	}
	if s.cache == nil {
		s.cache = text.NewCache()
	}
	startTime := time.Now()
	log := s.logger()
	g := s.geometry()

	// Base layout is measured before any worker starts and then shared.
	measure := text.NewTypesetter(s.Font)
	face, err := measure.Face(s.Config.FontSize)
	if err != nil {
		measure.Close()
		return nil, fmt.Errorf("base face: %w", err)
	}
	metrics := s.cache.Metrics(prompt, face, g)
	measure.Close()

	total := len(s.Backgrounds) * len(s.Motions)
	if total > s.Config.MaxStyles {
		total = s.Config.MaxStyles
	}
	if total <= 0 {
		return nil, nil
	}

	numWorkers := s.workers(total)
	typesetters := make(chan *text.Typesetter, numWorkers)
	for w := 0; w < numWorkers; w++ {
		typesetters <- text.NewTypesetter(s.Font)
	}
	defer func() {
		close(typesetters)
		for ts := range typesetters {
			ts.Close()
		}
	}()

	log.Info("rendering styles",
		"prompt", prompt,
		"styles", total,
		"workers", numWorkers,
		"lines", len(metrics.Lines),
		"block_height", metrics.BlockHeight)

	slots := make([]*StyleDescriptor, total)
	var renderNs, encodeNs, storeNs atomic.Int64
	var failed atomic.Int32

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(numWorkers)
	for i := 0; i < total; i++ {
		if egCtx.Err() != nil {
			break
		}
		job := styleJob{
			index: i,
			bg:    s.Backgrounds[i/len(s.Motions)],
			mo:    s.Motions[i%len(s.Motions)],
		}
		eg.Go(func() error {
			ts := <-typesetters
			defer func() { typesetters <- ts }()

			scene := &motion.Scene{
				Text:       prompt,
				Geometry:   g,
				BaseSize:   s.Config.FontSize,
				Metrics:    metrics,
				Typesetter: ts,
			}

			desc, timing, err := s.renderStyle(egCtx, job, scene)
			renderNs.Add(int64(timing.render))
			encodeNs.Add(int64(timing.encode))
			storeNs.Add(int64(timing.store))
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				failed.Add(1)
				log.Error("style failed",
					"index", job.index,
					"name", StyleName(job.index),
					"background", job.bg.Name(),
					"motion", job.mo.Name(),
					"err", err)
				return nil
			}
			slots[job.index] = desc
			log.Debug("style ready", "index", job.index, "name", desc.Name, "path", desc.Path)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := make([]StyleDescriptor, 0, total)
	for _, d := range slots {
		if d != nil {
			results = append(results, *d)
		}
	}
	if len(results) > s.Config.MaxStyles {
		results = results[:s.Config.MaxStyles]
	}

	stats := Stats{
		Prompt:  prompt,
		Styles:  total,
		OK:      len(results),
		Failed:  int(failed.Load()),
		Workers: numWorkers,
		Total:   time.Since(startTime),
		Render:  time.Duration(renderNs.Load()),
		Encode:  time.Duration(encodeNs.Load()),
		Store:   time.Duration(storeNs.Load()),
	}
	log.Info("styles rendered",
		"ok", stats.OK,
		"failed", stats.Failed,
		"total", stats.Total.Round(time.Millisecond))
	if s.Config.ShowStats {
		s.reportStats(stats)
	}

	return results, nil
}

type styleTiming struct {
	render, encode, store time.Duration
}

func (s *StyleMatrix) renderStyle(ctx context.Context, job styleJob, scene *motion.Scene) (*StyleDescriptor, styleTiming, error) {
	var timing styleTiming

	start := time.Now()
	frames, err := s.RenderSequence(ctx, job.bg, job.mo, scene)
	timing.render = time.Since(start)
	if err != nil {
		return nil, timing, err
	}

	start = time.Now()
	var buf bytes.Buffer
	err = s.Encoder.Encode(ctx, &buf, frames, animation.Params{
		FrameDuration: s.Config.FrameDuration,
		Loop:          true,
	})
	system.PutImage(frames...)
	timing.encode = time.Since(start)
	if err != nil {
		return nil, timing, fmt.Errorf("encode: %w", err)
	}

	start = time.Now()
	name := storage.NewArtifactName(s.Encoder.Extension())
	path, err := s.Store.Put(ctx, name, buf.Bytes(), s.Encoder.ContentType())
	timing.store = time.Since(start)
	if err != nil {
		return nil, timing, fmt.Errorf("store: %w", err)
	}

	return &StyleDescriptor{
		Index:      job.index,
		Name:       StyleName(job.index),
		Path:       path,
		Background: job.bg.Name(),
		Motion:     job.mo.Name(),
	}, timing, nil
}

// RenderSequence draws Config.FrameCount frames of one style. Frames come
// from the shared image pool; the caller returns them with system.PutImage.
func (s *StyleMatrix) RenderSequence(ctx context.Context, bg background.Background, mo motion.Motion, scene *motion.Scene) ([]*image.RGBA, error) {
	rect := image.Rect(0, 0, s.Config.Width, s.Config.Height)
	frames := make([]*image.RGBA, 0, s.Config.FrameCount)
	for f := 0; f < s.Config.FrameCount; f++ {
		if err := ctx.Err(); err != nil {
			system.PutImage(frames...)
			return nil, err
		}
		canvas := system.GetImage(rect)
		bg.Paint(canvas, f)
		if err := mo.Animate(canvas, f, scene); err != nil {
			system.PutImage(append(frames, canvas)...)
			return nil, fmt.Errorf("frame %d: %w", f, err)
		}
		frames = append(frames, canvas)
	}
	return frames, nil
}

func (s *StyleMatrix) reportStats(st Stats) {
	report := fmt.Sprintf(
		"--- [PERFORMANCE REPORT] ---\n"+
			"Styles: %d (ok %d, failed %d) | Workers: %d\n"+
			"Total Time: %.2fs\n"+
			"Rendering (CPU, sum): %.2fs\n"+
			"Encoding (sum): %.2fs\n"+
			"Storage (sum): %.2fs\n"+
			"----------------------------\n",
		st.Styles, st.OK, st.Failed, st.Workers,
		st.Total.Seconds(), st.Render.Seconds(), st.Encode.Seconds(), st.Store.Seconds(),
	)
	fmt.Print(report)

	if s.Config.StatsLog == "" {
		return
	}
	logEntry := fmt.Sprintf("[%s] Prompt: %q | Styles: %d | OK: %d | Failed: %d | Total: %.2fs | Render: %.2fs | Encode: %.2fs | Store: %.2fs\n",
		time.Now().Format("2006-01-02 15:04:05"),
		st.Prompt,
		st.Styles,
		st.OK,
		st.Failed,
		st.Total.Seconds(),
		st.Render.Seconds(),
		st.Encode.Seconds(),
		st.Store.Seconds(),
	)

	f, err := os.OpenFile(s.Config.StatsLog, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		f.WriteString(logEntry)
		f.Close()
	} else {
		fmt.Printf("[!] Не удалось записать %s: %v\n", s.Config.StatsLog, err)
	}
}
