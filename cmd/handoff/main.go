// Команда handoff печатает handoff-промпт для разговора; с -patch сначала
// применяет изменения из JSON (файл или "-" для stdin) и сохраняет их в backend.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cjaisingh/awip-mission-control-sub000/internal/bootstrap"
	"github.com/cjaisingh/awip-mission-control-sub000/internal/engine"
	"github.com/cjaisingh/awip-mission-control-sub000/internal/handoff"
	"github.com/cjaisingh/awip-mission-control-sub000/internal/infra"
)

func main() {
	id := flag.String("id", "", "conversation id (required)")
	full := flag.Bool("full", false, "include component maps and recommendations")
	patchPath := flag.String("patch", "", "JSON patch to apply before printing (file path or -)")
	timeout := flag.Duration("timeout", 30*time.Second, "overall deadline")
	flag.Parse()

	if *id == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := infra.ResolveConfig()
	// stdout занят промптом, логи только в stderr
	logCfg := cfg.Logger
	logCfg.Format = "console"
	logCfg.Output = "stderr"
	logger, err := infra.NewLogger(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	backend, closeBackend := bootstrap.Backend(ctx, cfg, logger)
	defer closeBackend()
	svc := handoff.NewService(engine.NewGateway(cfg, backend, nil, nil, nil, logger), logger)

	if *patchPath != "" {
		patch, err := readPatch(*patchPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "patch: %v\n", err)
			os.Exit(2)
		}
		if _, out := svc.Update(ctx, *id, patch.Apply); !out.Persisted {
			fmt.Fprintf(os.Stderr, "warning: update not persisted: %v\n", out.Err)
		}
	}

	p := svc.Prompt(ctx, *id, *full)
	if p.Synthetic {
		fmt.Fprintln(os.Stderr, "warning: backend unavailable, prompt built from offline state")
	}
	fmt.Print(p.Text)
}

func readPatch(path string) (handoff.Patch, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return handoff.Patch{}, err
		}
		defer f.Close()
		r = f
	}
	var p handoff.Patch
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return handoff.Patch{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return p, nil
}
