// shadowplan simulates shadow frames without a GPU and prints what every
// scene light was given.
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-shadow/internal/config"
	"github.com/Faultbox/midgard-shadow/internal/engine/gpu"
	"github.com/Faultbox/midgard-shadow/internal/logger"
	"github.com/Faultbox/midgard-shadow/internal/plan"
)

var (
	flagFormat    = flag.String("format", "text", "Output format: text or yaml")
	flagNoFloat   = flag.Bool("no-float", false, "Simulate a device without RGBA32F targets")
	flagNoHalf    = flag.Bool("no-half", false, "Simulate a device without RGBA16F targets")
	flagNoCompare = flag.Bool("no-compare", false, "Simulate a device without depth comparison")
)

func main() {
	flag.Usage = printUsage
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if config.SaveRequested() {
		path, err := cfg.SaveRequestedConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Config save error: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Config written to %s\n", path)
		return
	}

	// Stdout carries the plan.
	if err := logger.InitToStderr(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	rcfg, err := cfg.Shadows.RendererConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	p, err := plan.Simulate(cfg.BuildScene, plan.Options{
		Frames: cfg.Scene.Frames,
		Caps: gpu.Caps{
			FloatRenderable:     !*flagNoFloat,
			HalfFloatRenderable: !*flagNoHalf,
			DepthCompare:        !*flagNoCompare,
		},
		Renderer: rcfg,
	})
	if err != nil {
		logger.Error("simulation failed", zap.Error(err))
		os.Exit(1)
	}

	switch *flagFormat {
	case "yaml":
		err = p.WriteYAML(os.Stdout)
	case "text":
		err = p.WriteText(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown format: %s\n", *flagFormat)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `shadowplan - simulate shadow allocation for a scene

Usage:
  shadowplan [options]

Examples:
  shadowplan -frames 3
  shadowplan -scene courtyard.yaml -atlas -format yaml
  shadowplan -filter vsm32f -no-float
  shadowplan -atlas -save-config user

Options:`)
	flag.PrintDefaults()
}
