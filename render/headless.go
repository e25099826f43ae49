// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"
	"sync"

	"gioui.org/f32"
	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/compositor/internal/cache"
	"github.com/gogpu/compositor/internal/parallel"
)

// HeadlessOptions configures a Headless engine.
type HeadlessOptions struct {
	// Namespace for keys allocated against the engine. Zero selects 1.
	Namespace IDNamespace

	// MaxWorkers caps the raster pool; zero uses all available parallelism.
	MaxWorkers int

	// ImageCacheEntries is the per-shard limit of the decoded image cache.
	ImageCacheEntries int

	// External resolves images whose pixels live with external producers.
	// Nil means external images are always reported missing.
	External *ExternalImages

	// Background fills the framebuffer before items are drawn.
	Background color.RGBA
}

// FrameStats describes the most recent Render.
type FrameStats struct {
	Items         int
	MissingImages int
	Frames        uint64
}

// Headless is a CPU reference Engine. Transactions are applied on a private
// goroutine in submission order; Render rasterizes the latest generated frame
// into an RGBA framebuffer in horizontal bands on a worker pool.
type Headless struct {
	notifier   Notifier
	ns         IDNamespace
	external   *ExternalImages
	background color.RGBA

	pool    *parallel.Pool
	decoded *cache.Sharded[decodedKey, *image.RGBA]

	qmu   sync.Mutex
	queue []*Transaction
	wake  chan struct{}

	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once

	// mu guards everything below. The apply goroutine writes the scene; the
	// compositor goroutine reads frames and owns the framebuffer.
	mu         sync.Mutex
	root       PipelineID
	pipelines  map[PipelineID]*pipelineState
	scroll     map[PipelineID]map[ExternalScrollID]f32.Point
	images     map[ImageKey]imageRef
	fonts      map[FontKey]AddFontOp
	instances  map[FontInstanceKey]AddFontInstanceOp
	generation uint64
	built      *frame
	presented  *frame
	fb         *image.RGBA
	stats      FrameStats
}

type pipelineState struct {
	list  *DisplayList
	epoch Epoch
}

type imageRef struct {
	desc       ImageDescriptor
	raw        []byte
	external   ExternalImageID
	generation uint64
}

type decodedKey struct {
	key        ImageKey
	generation uint64
}

// frame is an immutable snapshot of the scene taken at GenerateFrame.
type frame struct {
	root   PipelineID
	lists  map[PipelineID]*DisplayList
	epochs map[PipelineID]Epoch
	scroll map[PipelineID]map[ExternalScrollID]f32.Point
	images map[ImageKey]imageRef
}

var _ Engine = (*Headless)(nil)

// NewHeadless starts a headless engine reporting frames to n.
func NewHeadless(n Notifier, opts HeadlessOptions) *Headless {
	if opts.Namespace == 0 {
		opts.Namespace = 1
	}
	h := &Headless{
		notifier:   n,
		ns:         opts.Namespace,
		external:   opts.External,
		background: opts.Background,
		pool:       parallel.NewPool(opts.MaxWorkers),
		decoded: cache.NewSharded[decodedKey, *image.RGBA](opts.ImageCacheEntries, func(k decodedKey) uint64 {
			return uint64(k.key.Index)*0x9e3779b97f4a7c15 ^ k.generation
		}),
		wake:      make(chan struct{}, 1),
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
		pipelines: make(map[PipelineID]*pipelineState),
		scroll:    make(map[PipelineID]map[ExternalScrollID]f32.Point),
		images:    make(map[ImageKey]imageRef),
		fonts:     make(map[FontKey]AddFontOp),
		instances: make(map[FontInstanceKey]AddFontInstanceOp),
	}
	go h.loop()
	slogger().Info("render: headless engine started",
		slog.Int("workers", h.pool.Workers()),
		slog.Uint64("namespace", uint64(h.ns)))
	return h
}

// SetLogger implements the logger propagation hook.
func (h *Headless) SetLogger(l *slog.Logger) { setLogger(l) }

// IDNamespace implements Engine.
func (h *Headless) IDNamespace() IDNamespace { return h.ns }

// SendTransaction implements Engine. Transactions sent after Shutdown are
// dropped.
func (h *Headless) SendTransaction(tx *Transaction) {
	if tx == nil || tx.IsEmpty() {
		return
	}
	select {
	case <-h.done:
		slogger().Warn("render: transaction after shutdown dropped", slog.Int("ops", len(tx.ops)))
		return
	default:
	}

	h.qmu.Lock()
	h.queue = append(h.queue, tx)
	h.qmu.Unlock()

	select {
	case h.wake <- struct{}{}:
	default:
	}
}

func (h *Headless) loop() {
	defer close(h.stopped)
	for {
		select {
		case <-h.done:
			return
		case <-h.wake:
		}
		for {
			tx := h.pop()
			if tx == nil {
				break
			}
			h.apply(tx)
		}
	}
}

func (h *Headless) pop() *Transaction {
	h.qmu.Lock()
	defer h.qmu.Unlock()
	if len(h.queue) == 0 {
		return nil
	}
	tx := h.queue[0]
	h.queue[0] = nil
	h.queue = h.queue[1:]
	return tx
}

func (h *Headless) apply(tx *Transaction) {
	h.mu.Lock()
	for _, op := range tx.ops {
		h.applyOp(op)
	}
	if tx.generateFrame {
		h.built = h.snapshot()
	}
	h.mu.Unlock()

	if tx.generateFrame && h.notifier != nil {
		h.notifier.NewFrameReady(true)
	}
}

// applyOp mutates the scene. Callers hold h.mu.
func (h *Headless) applyOp(op Op) {
	switch op := op.(type) {
	case SetDisplayListOp:
		if op.DisplayList == nil {
			return
		}
		p := op.DisplayList.Pipeline
		h.pipelines[p] = &pipelineState{list: op.DisplayList, epoch: op.Epoch}
		// A new display list resets scroll state; offsets are resupplied by
		// the sender.
		delete(h.scroll, p)
	case SetRootPipelineOp:
		h.root = op.Pipeline
	case RemovePipelineOp:
		delete(h.pipelines, op.Pipeline)
		delete(h.scroll, op.Pipeline)
	case UpdateEpochOp:
		if ps, ok := h.pipelines[op.Pipeline]; ok {
			ps.epoch = op.Epoch
		} else {
			h.pipelines[op.Pipeline] = &pipelineState{epoch: op.Epoch}
		}
	case ScrollNodeOp:
		offsets := h.scroll[op.Pipeline]
		if offsets == nil {
			offsets = make(map[ExternalScrollID]f32.Point)
			h.scroll[op.Pipeline] = offsets
		}
		offsets[op.Node] = op.Offset
	case AddImageOp:
		h.putImage(op.Key, op.Descriptor, op.Data, false)
	case UpdateImageOp:
		h.putImage(op.Key, op.Descriptor, op.Data, true)
	case DeleteImageOp:
		delete(h.images, op.Key)
		h.decoded.DeleteFunc(func(k decodedKey) bool { return k.key == op.Key })
	case AddFontOp:
		h.fonts[op.Key] = op
	case AddFontInstanceOp:
		if _, ok := h.fonts[op.Font]; !ok {
			slogger().Warn("render: font instance for unknown font", slog.Any("font", op.Font))
			return
		}
		h.instances[op.Key] = op
	case DeleteFontOp:
		delete(h.fonts, op.Key)
	case DeleteFontInstanceOp:
		delete(h.instances, op.Key)
	}
}

func (h *Headless) putImage(key ImageKey, desc ImageDescriptor, data ImageData, update bool) {
	if _, ok := h.images[key]; update && !ok {
		slogger().Warn("render: update of unknown image", slog.String("key", key.String()))
	}
	if !data.IsExternal() {
		if err := desc.Validate(len(data.Raw)); err != nil {
			slogger().Warn("render: image rejected", slog.String("key", key.String()), slog.Any("err", err))
			return
		}
	}
	h.generation++
	h.images[key] = imageRef{desc: desc, raw: data.Raw, external: data.External, generation: h.generation}
	if update {
		h.decoded.DeleteFunc(func(k decodedKey) bool { return k.key == key })
	}
}

// snapshot copies the scene maps. Display lists and image bytes are never
// mutated after submission, so they are shared.
func (h *Headless) snapshot() *frame {
	f := &frame{
		root:   h.root,
		lists:  make(map[PipelineID]*DisplayList, len(h.pipelines)),
		epochs: make(map[PipelineID]Epoch, len(h.pipelines)),
		scroll: make(map[PipelineID]map[ExternalScrollID]f32.Point, len(h.scroll)),
		images: make(map[ImageKey]imageRef, len(h.images)),
	}
	for p, ps := range h.pipelines {
		if ps.list != nil {
			f.lists[p] = ps.list
		}
		f.epochs[p] = ps.epoch
	}
	for p, offsets := range h.scroll {
		m := make(map[ExternalScrollID]f32.Point, len(offsets))
		for id, o := range offsets {
			m[id] = o
		}
		f.scroll[p] = m
	}
	for k, v := range h.images {
		f.images[k] = v
	}
	return f
}

// CurrentEpoch implements Engine.
func (h *Headless) CurrentEpoch(p PipelineID) (Epoch, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.presented == nil {
		return 0, false
	}
	e, ok := h.presented.epochs[p]
	return e, ok
}

// Stats returns statistics of the most recent Render.
func (h *Headless) Stats() FrameStats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stats
}

// drawCmd is one flattened item in device space.
type drawCmd struct {
	kind  ItemKind
	dst   image.Rectangle
	clip  image.Rectangle
	color color.RGBA
	image ImageKey
}

// Render implements Engine.
func (h *Headless) Render(size image.Point) error {
	select {
	case <-h.done:
		return ErrShutDown
	default:
	}
	if size.X <= 0 || size.Y <= 0 {
		return fmt.Errorf("render: invalid drawable size %v", size)
	}

	h.mu.Lock()
	f := h.built
	if h.fb == nil || h.fb.Bounds().Size() != size {
		h.fb = image.NewRGBA(image.Rectangle{Max: size})
	}
	fb := h.fb
	h.mu.Unlock()

	var cmds []drawCmd
	stats := FrameStats{}
	if f != nil {
		clip := RectWH(0, 0, float32(size.X), float32(size.Y))
		f.flatten(f.root, f32.Affine2D{}, clip, make(map[PipelineID]bool), &cmds, &stats)
	}

	sources, missing := h.resolve(f, cmds)
	stats.MissingImages += missing
	defer h.unlockExternal(f, sources)

	h.rasterize(fb, cmds, sources)

	h.mu.Lock()
	stats.Frames = h.stats.Frames + 1
	h.stats = stats
	if f != nil {
		h.presented = f
	}
	h.mu.Unlock()

	slogger().Debug("render: frame rendered",
		slog.Int("items", stats.Items),
		slog.Int("missing_images", stats.MissingImages))
	return nil
}

// flatten walks pipeline p, emitting draw commands clipped to clip. Iframes
// recurse; a pipeline already on the walk stack is skipped.
func (f *frame) flatten(p PipelineID, cur f32.Affine2D, clip Rect, visiting map[PipelineID]bool, out *[]drawCmd, stats *FrameStats) {
	dl := f.lists[p]
	if dl == nil || visiting[p] {
		return
	}
	visiting[p] = true
	defer delete(visiting, p)

	var stack []f32.Affine2D
	offsets := f.scroll[p]
	for _, it := range dl.Items {
		bounds := it.Bounds
		if it.ScrollNode != 0 {
			bounds = bounds.Offset(offsets[it.ScrollNode].Mul(-1))
		}
		switch it.Kind {
		case ItemPushReferenceFrame:
			stack = append(stack, cur)
			cur = cur.Mul(it.Transform)
		case ItemPopReferenceFrame:
			if n := len(stack); n > 0 {
				cur = stack[n-1]
				stack = stack[:n-1]
			}
		case ItemRect, ItemImage:
			dev := bounds.Transform(cur)
			if dev.Intersect(clip).IsEmpty() {
				continue
			}
			if it.Kind == ItemImage {
				if _, ok := f.images[it.Image]; !ok {
					stats.MissingImages++
					continue
				}
			}
			stats.Items++
			*out = append(*out, drawCmd{
				kind:  it.Kind,
				dst:   toPixels(dev),
				clip:  toPixels(dev.Intersect(clip)),
				color: it.Color,
				image: it.Image,
			})
		case ItemIframe:
			inner := bounds.Transform(cur).Intersect(clip)
			if inner.IsEmpty() {
				continue
			}
			child := cur.Mul(f32.Affine2D{}.Offset(f32.Pt(bounds.MinX, bounds.MinY)))
			f.flatten(it.Pipeline, child, inner, visiting, out, stats)
		}
	}
}

func toPixels(r Rect) image.Rectangle {
	round := func(v float32) int { return int(math.Round(float64(v))) }
	return image.Rect(round(r.MinX), round(r.MinY), round(r.MaxX), round(r.MaxY))
}

// resolve fetches the pixels of every image the commands use. Raw images
// decode in parallel through the cache; external images are locked and must
// be released with unlockExternal.
func (h *Headless) resolve(f *frame, cmds []drawCmd) (map[ImageKey]*image.RGBA, int) {
	if f == nil {
		return nil, 0
	}
	var keys []ImageKey
	seen := make(map[ImageKey]bool)
	for _, c := range cmds {
		if c.kind == ItemImage && !seen[c.image] {
			seen[c.image] = true
			keys = append(keys, c.image)
		}
	}

	results := make([]*image.RGBA, len(keys))
	tasks := make([]func(), 0, len(keys))
	for i, key := range keys {
		ref := f.images[key]
		if ref.external != 0 {
			if h.external == nil {
				continue
			}
			img, err := h.external.Lock(ref.external)
			if err != nil {
				slogger().Warn("render: external image unavailable", slog.String("key", key.String()), slog.Any("err", err))
				continue
			}
			results[i] = img
			continue
		}
		tasks = append(tasks, func() {
			img, err := h.decoded.GetOrCreate(decodedKey{key: key, generation: ref.generation}, func() (*image.RGBA, int64, error) {
				img, err := decodeRGBA(ref.desc, ref.raw)
				if err != nil {
					return nil, 0, err
				}
				return img, int64(len(img.Pix)), nil
			})
			if err != nil {
				slogger().Warn("render: image decode failed", slog.String("key", key.String()), slog.Any("err", err))
				return
			}
			results[i] = img
		})
	}
	h.pool.Run(tasks)

	sources := make(map[ImageKey]*image.RGBA, len(keys))
	missing := 0
	for i, key := range keys {
		if results[i] == nil {
			missing++
			continue
		}
		sources[key] = results[i]
	}
	return sources, missing
}

func (h *Headless) unlockExternal(f *frame, sources map[ImageKey]*image.RGBA) {
	if f == nil || h.external == nil {
		return
	}
	for key := range sources {
		if ref := f.images[key]; ref.external != 0 {
			h.external.Unlock(ref.external)
		}
	}
}

// rasterize paints cmds into fb. Each worker owns a horizontal band, so
// writes never overlap.
func (h *Headless) rasterize(fb *image.RGBA, cmds []drawCmd, sources map[ImageKey]*image.RGBA) {
	bounds := fb.Bounds()
	bands := min(h.pool.Workers(), bounds.Dy())
	bandHeight := (bounds.Dy() + bands - 1) / bands
	bg := image.NewUniform(h.background)

	tasks := make([]func(), 0, bands)
	for y := bounds.Min.Y; y < bounds.Max.Y; y += bandHeight {
		band := image.Rect(bounds.Min.X, y, bounds.Max.X, min(y+bandHeight, bounds.Max.Y))
		tasks = append(tasks, func() {
			xdraw.Draw(fb, band, bg, image.Point{}, xdraw.Src)
			for _, c := range cmds {
				r := c.clip.Intersect(band)
				if r.Empty() {
					continue
				}
				dst := fb.SubImage(r).(*image.RGBA)
				switch c.kind {
				case ItemRect:
					xdraw.Draw(dst, r, image.NewUniform(c.color), image.Point{}, xdraw.Over)
				case ItemImage:
					src := sources[c.image]
					if src == nil {
						continue
					}
					xdraw.NearestNeighbor.Scale(dst, c.dst, src, src.Bounds(), xdraw.Over, nil)
				}
			}
		})
	}
	h.pool.Run(tasks)
}

// ReadPixels implements Engine. Like Render it must be called from the
// goroutine that renders.
func (h *Headless) ReadPixels(r image.Rectangle) (*image.RGBA, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.fb == nil {
		return nil, ErrNoFrame
	}
	if r.Empty() {
		r = h.fb.Bounds()
	}
	clipped := r.Intersect(h.fb.Bounds())
	if clipped.Empty() {
		return nil, fmt.Errorf("render: region %v outside framebuffer %v", r, h.fb.Bounds())
	}
	out := image.NewRGBA(image.Rectangle{Max: clipped.Size()})
	xdraw.Draw(out, out.Bounds(), h.fb, clipped.Min, xdraw.Src)
	return out, nil
}

// MemoryReport implements Engine.
func (h *Headless) MemoryReport() MemoryReport {
	h.mu.Lock()
	defer h.mu.Unlock()

	var m MemoryReport
	for _, ref := range h.images {
		m.Images += int64(len(ref.raw))
	}
	m.ImageCache = h.decoded.Stats().Cost
	for _, ps := range h.pipelines {
		if ps.list != nil {
			m.DisplayLists += int64(ps.list.approxSize())
		}
	}
	for _, f := range h.fonts {
		m.Fonts += int64(len(f.Data))
	}
	if h.fb != nil {
		m.Framebuffer = int64(len(h.fb.Pix))
	}
	return m
}

// Shutdown implements Engine. Queued transactions that have not been applied
// are discarded.
func (h *Headless) Shutdown() {
	h.closeOnce.Do(func() {
		close(h.done)
		<-h.stopped
		h.pool.Close()
		slogger().Info("render: headless engine stopped")
	})
}
