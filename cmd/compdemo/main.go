// Command compdemo runs the compositor with the headless engine, a
// simulated content process and a canvas producer, then writes a screenshot
// of the final frame.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"

	"gioui.org/f32"
	"github.com/gogpu/gputypes"
	"golang.org/x/sync/errgroup"

	"github.com/gogpu/compositor"
	"github.com/gogpu/compositor/displaylist"
	"github.com/gogpu/compositor/render"
	"github.com/gogpu/compositor/viewport"
)

const (
	webview     viewport.ID            = 1
	canvasImage render.ExternalImageID = 1
	canvasSize                         = 64
)

var content = render.PipelineID{Namespace: 1, Index: 1}

func main() {
	var (
		configPath = flag.String("config", "", "TOML or YAML config file, watched for changes")
		frames     = flag.Int("frames", 30, "number of content frames to produce")
		output     = flag.String("output", "compdemo.png", "screenshot file")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	compositor.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg := compositor.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = compositor.LoadConfig(*configPath); err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, *configPath, *frames, *output); err != nil {
		log.Fatalf("compdemo: %v", err)
	}
	log.Printf("Screenshot saved to %s (%dx%d)\n", *output, cfg.Width, cfg.Height)
}

func run(ctx context.Context, cfg compositor.Config, configPath string, frames int, output string) error {
	sink := compositor.NewChannelSink(256)
	c, err := compositor.New(sink, compositor.WithConfig(cfg))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// epoch is the last content epoch, read when content answers screenshot
	// readiness requests.
	var epoch atomic.Uint32

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.Run(ctx)
	})
	g.Go(func() error {
		return contentProcess(ctx, c, sink, &epoch)
	})
	if configPath != "" {
		g.Go(func() error {
			return compositor.WatchConfig(ctx, configPath, func(cfg compositor.Config, err error) {
				if err != nil {
					slog.Warn("config reload failed", "err", err)
					return
				}
				if err := c.Reconfigure(cfg); err != nil {
					slog.Warn("config rejected", "err", err)
				}
			})
		})
	}
	g.Go(func() error {
		defer cancel()
		return produce(ctx, c, cfg, frames, output, &epoch)
	})
	return g.Wait()
}

// contentProcess plays the content process: it answers screenshot readiness
// requests and logs everything else it hears.
func contentProcess(ctx context.Context, c *compositor.Compositor, sink *compositor.ChannelSink, epoch *atomic.Uint32) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-sink.Events():
			switch ev := ev.(type) {
			case compositor.RequestScreenshotReadiness:
				reply := compositor.ScreenshotReadinessReply{
					WebView: ev.WebView,
					Epochs:  map[render.PipelineID]render.Epoch{content: render.Epoch(epoch.Load())},
				}
				if err := c.Send(reply); err != nil && !errors.Is(err, compositor.ErrClosed) {
					return err
				}
			case compositor.PaintMetricEvent:
				slog.Info("paint metric", "metric", ev.Metric, "pipeline", ev.Pipeline, "first_reflow", ev.FirstReflow)
			case compositor.NoLongerWaitingOnAsynchronousImageUpdates:
				slog.Debug("canvas frame released", "pipelines", ev.Pipelines)
			}
		}
	}
}

// produce sets up one webview and drives frames through it: every frame is
// a display list with a moving rectangle and a canvas image whose pixels
// come from a frame store.
func produce(ctx context.Context, c *compositor.Compositor, cfg compositor.Config, frames int, output string, epoch *atomic.Uint32) error {
	store := render.NewFrameStore()
	images := c.ExternalImages()
	images.Register(render.ExternalCanvas, store)
	if err := images.Bind(canvasImage, render.ExternalCanvas); err != nil {
		return err
	}

	bounds := image.Rect(0, 0, cfg.Width, cfg.Height)
	send := func(msgs ...compositor.Message) error {
		for _, m := range msgs {
			if err := c.Send(m); err != nil {
				return err
			}
		}
		return nil
	}
	if err := send(
		compositor.AddWebView{WebView: webview, Details: viewport.Details{Rect: bounds, HiDPIScale: 1}},
		compositor.ShowWebView{WebView: webview},
		compositor.SetFrameTree{WebView: webview, Tree: compositor.FrameTree{Pipeline: content}},
	); err != nil {
		return err
	}

	keyReply := make(chan render.ImageKey, 1)
	if err := send(compositor.GenerateImageKey{Reply: keyReply}); err != nil {
		return err
	}
	var key render.ImageKey
	select {
	case key = <-keyReply:
	case <-ctx.Done():
		return ctx.Err()
	}

	desc := render.ImageDescriptor{Width: canvasSize, Height: canvasSize, Format: gputypes.TextureFormatRGBA8Unorm}
	for i := range frames {
		e := render.Epoch(i + 1)
		store.Publish(canvasImage, canvasFrame(i))

		ch := displaylist.NewChannel(displaylist.ChunkCount)
		info := displaylist.Info{
			Pipeline:    content,
			Epoch:       e,
			Contentful:  true,
			FirstReflow: i == 0,
			Viewport:    viewport.Details{Rect: bounds, HiDPIScale: 1},
			ContentSize: f32.Pt(float32(cfg.Width), float32(cfg.Height)),
		}
		dl, err := displaylist.Send(ch, &info, scene(i, key, cfg))
		if err != nil {
			return err
		}
		epoch.Store(uint32(e))

		kind := render.ImageUpdate
		if i == 0 {
			kind = render.ImageAdd
		}
		if err := send(
			compositor.DelayFramesForCanvas{Pipeline: content, Epoch: e, Images: []render.ImageKey{key}},
			compositor.NewDisplayList{WebView: webview, Descriptor: dl, Receiver: ch},
			compositor.GenerateFrameForScript{},
			compositor.UpdateImages{Updates: []render.ImageUpdateEntry{{
				Kind:       kind,
				Key:        key,
				Descriptor: desc,
				Data:       render.ImageData{External: canvasImage},
				Epoch:      e,
				HasEpoch:   true,
			}}},
		); err != nil {
			return err
		}
	}

	saved := make(chan error, 1)
	if err := send(compositor.RequestScreenshot{WebView: webview, Done: func(img *image.RGBA, err error) {
		if err == nil {
			err = writePNG(output, img)
		}
		saved <- err
	}}); err != nil {
		return err
	}
	select {
	case err := <-saved:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func scene(i int, key render.ImageKey, cfg compositor.Config) *render.DisplayList {
	w, h := float32(cfg.Width), float32(cfg.Height)
	x := float32(i*8 % max(cfg.Width-100, 1))
	return &render.DisplayList{Items: []render.Item{
		{Kind: render.ItemRect, Bounds: render.RectWH(0, 0, w, h), Color: color.RGBA{R: 0x20, G: 0x30, B: 0x50, A: 0xff}},
		{Kind: render.ItemRect, Bounds: render.RectWH(x, 40, 100, 100), Color: color.RGBA{R: 0xe0, G: 0x60, B: 0x40, A: 0xff}},
		{Kind: render.ItemImage, Bounds: render.RectWH(w/2-canvasSize, h/2-canvasSize, 2*canvasSize, 2*canvasSize), Image: key},
	}}
}

// canvasFrame draws a gradient that shifts with the frame number.
func canvasFrame(i int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, canvasSize, canvasSize))
	for y := range canvasSize {
		for x := range canvasSize {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 4), G: uint8(y * 4), B: uint8(i * 8), A: 0xff})
		}
	}
	return img
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
