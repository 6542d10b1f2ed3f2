/*
Headless viewer for the marionette animation pipeline. Loads the scene
named by the config, plays the configured clip and periodically writes
skeleton/mesh overlay snapshots until interrupted.
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spaghettifunk/marionette/engine"
	"github.com/spaghettifunk/marionette/engine/core"
	"github.com/spaghettifunk/marionette/engine/debug"
)

func main() {
	configPath := flag.String("config", "marionette.toml", "path to the TOML config")
	snapshotDir := flag.String("snapshots", "", "directory for overlay PNG snapshots (empty disables)")
	duration := flag.Duration("duration", 0, "stop after this long (0 runs until interrupted)")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	if *verbose {
		core.SetLogLevel(core.DebugLevel)
	}

	cfg, err := engine.LoadConfig(*configPath)
	if err != nil {
		core.LogFatal("load config: %s", err.Error())
	}

	e, err := engine.New(cfg)
	if err != nil {
		core.LogFatal("initialize: %s", err.Error())
	}
	defer e.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := e.LoadScene(ctx); err != nil {
		core.LogFatal("load scene: %s", err.Error())
	}
	if err := e.Play(); err != nil {
		core.LogFatal("play: %s", err.Error())
	}

	if err := run(ctx, e, cfg, *snapshotDir, *duration); err != nil && ctx.Err() == nil {
		core.LogFatal("run: %s", err.Error())
	}
	core.LogInfo("shutting down: %.0f fps, %.2fms avg frame", e.FPS(), e.FrameTime())
}

func run(ctx context.Context, e *engine.Engine, cfg engine.Config, snapshotDir string, duration time.Duration) error {
	fps := cfg.Playback.FPS
	if fps <= 0 {
		fps = 30
	}
	frameInterval := time.Duration(float64(time.Second) / float64(fps))

	if duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}

	overlay := debug.NewOverlay(960, 720)
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	// Snapshot roughly once per second of playback.
	snapshotEvery := int(fps)
	if snapshotEvery < 1 {
		snapshotEvery = 1
	}

	frame := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		deformed, err := e.Update(ctx)
		if err != nil {
			return err
		}

		if snapshotDir != "" && frame%snapshotEvery == 0 {
			pose, err := e.CurrentPose()
			if err != nil {
				return err
			}
			segments := debug.PoseSegments(e.Skeleton(), pose)
			path := fmt.Sprintf("%s/frame-%05d.png", snapshotDir, frame)
			if err := overlay.Render(deformed.Positions, segments, path); err != nil {
				core.LogWarn("snapshot %s: %s", path, err.Error())
			}
		}
		frame++
	}
}
