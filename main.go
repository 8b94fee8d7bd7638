/*
anima-bind builds a pipeline layout from a description file and prints where
every descriptor binding lands in each shader stage's buffer, texture and
sampler index spaces.
*/
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spaghettifunk/anima-bind/engine/assets"
	"github.com/spaghettifunk/anima-bind/engine/assets/loaders"
	"github.com/spaghettifunk/anima-bind/engine/core"
	"github.com/spaghettifunk/anima-bind/engine/renderer/descriptors"
	"github.com/spaghettifunk/anima-bind/engine/renderer/metadata"
)

var (
	layoutPath = flag.String("layout", "", "Pipeline layout description (.layout.toml)")
	configPath = flag.String("config", "", "Binding core configuration (TOML)")
	watch      = flag.Bool("watch", false, "Rebuild the layout whenever its file changes")
)

func main() {
	flag.Parse()
	if *layoutPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := core.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = core.LoadConfig(*configPath); err != nil {
			core.LogFatal(err.Error())
		}
	}
	if err := core.ConfigureLogger(cfg.Log); err != nil {
		core.LogFatal(err.Error())
	}

	if err := describe(*layoutPath, cfg); err != nil && !*watch {
		os.Exit(1)
	}
	if !*watch {
		return
	}

	am, err := assets.NewAssetManager()
	if err != nil {
		core.LogFatal(err.Error())
	}
	if err := am.Initialize(filepath.Dir(*layoutPath), cfg); err != nil {
		core.LogFatal(err.Error())
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	target := filepath.Clean(*layoutPath)
	core.LogInfo("watching %s", target)
	for {
		select {
		case <-sigCh:
			_ = am.Close()
			return
		case ev, ok := <-am.Events():
			if !ok {
				return
			}
			if ev.Asset.Path != target {
				continue
			}
			if ev.Removed {
				core.LogWarn("%s was removed", target)
				continue
			}
			res, err := am.LoadAsset(target, nil)
			if err != nil {
				continue
			}
			loaded := res.Data.(*loaders.LoadedPipelineLayout)
			report(loaded.Config.Name, loaded.Layout)
		}
	}
}

func describe(path string, cfg *core.Config) error {
	c, pl, err := loaders.LoadPipelineLayout(path, cfg)
	if err != nil {
		core.LogError(err.Error())
		return err
	}
	report(c.Name, pl)
	return nil
}

func report(name string, pl *descriptors.PipelineLayout) {
	for _, line := range describeLayout(name, pl) {
		core.LogInfo(line)
	}
}

// describeLayout renders the index map of a pipeline layout, one line per
// (set, binding, stage), followed by the index space sizes.
func describeLayout(name string, pl *descriptors.PipelineLayout) []string {
	var ctx descriptors.ShaderConverterContext
	pl.PopulateShaderConverterContext(&ctx)

	lines := make([]string, 0, len(ctx.ResourceBindings)+2)
	lines = append(lines, fmt.Sprintf("layout %s: %d sets, %d dynamic offsets", name, pl.SetCount(), pl.DynamicOffsetCount()))
	for _, rb := range ctx.ResourceBindings {
		if rb.DescriptorSet == descriptors.PushConstantDescriptorSet {
			lines = append(lines, fmt.Sprintf("push constants %-9s buffer=%d", rb.Stage, rb.BufferIndex))
			continue
		}
		lines = append(lines, fmt.Sprintf("set %d binding %d %-22s %-9s buffer=%d texture=%d sampler=%d",
			rb.DescriptorSet, rb.Binding, rb.DescriptorType, rb.Stage, rb.BufferIndex, rb.TextureIndex, rb.SamplerIndex))
	}

	counts := pl.ResourceCounts()
	lines = append(lines, fmt.Sprintf("index spaces: buffers=%d textures=%d samplers=%d (compute buffers=%d textures=%d samplers=%d)",
		counts.MaxBufferIndex(), counts.MaxTextureIndex(), counts.MaxSamplerIndex(),
		counts.Stage(metadata.ShaderStageCompute).BufferIndex,
		counts.Stage(metadata.ShaderStageCompute).TextureIndex,
		counts.Stage(metadata.ShaderStageCompute).SamplerIndex))
	return lines
}
