package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"

	"github.com/obfustr/obfustr/internal/config"
	"github.com/obfustr/obfustr/internal/literals"
	"github.com/obfustr/obfustr/internal/rewrite"
)

type processor struct {
	opts *options
	cfg  *config.Config
	rew  *rewrite.Rewriter
	log  hclog.Logger
	out  io.Writer

	// go.mod files already checked for a runtime requirement.
	checkedMods map[string]bool
}

func run(opts *options, args []string) error {
	cfg, err := loadConfig(opts, args)
	if err != nil {
		return err
	}

	level := firstNonEmpty(opts.logLevel, cfg.LogLevel, "warn")
	if hclog.LevelFromString(level) == hclog.NoLevel {
		return fmt.Errorf("invalid log level %q", level)
	}
	logger := hclog.New(&hclog.LoggerOptions{
		Name:   "obfustr",
		Level:  hclog.LevelFromString(level),
		Output: os.Stderr,
	})

	runtimePath := firstNonEmpty(opts.runtimePath, cfg.Runtime, rewrite.DefaultRuntimePath)
	if err := module.CheckImportPath(runtimePath); err != nil {
		return fmt.Errorf("invalid runtime import path: %w", err)
	}

	keys, err := keyProvider(firstNonEmpty(opts.seed, cfg.Seed))
	if err != nil {
		return err
	}

	p := &processor{
		opts: opts,
		cfg:  cfg,
		rew: rewrite.New(rewrite.Config{
			Keys:        keys,
			RuntimePath: runtimePath,
			Logger:      logger,
		}),
		log:         logger,
		out:         os.Stdout,
		checkedMods: make(map[string]bool),
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return err
		}
		if info.IsDir() {
			err = p.dir(arg)
		} else {
			err = p.file(arg)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func loadConfig(opts *options, args []string) (*config.Config, error) {
	if opts.configPath != "" {
		return config.Read(opts.configPath)
	}

	start := args[0]
	if info, err := os.Stat(start); err != nil || !info.IsDir() {
		start = filepath.Dir(start)
	}
	if path, ok := config.Locate(start); ok {
		return config.Read(path)
	}
	return config.Default(), nil
}

func keyProvider(seed string) (literals.KeyProvider, error) {
	if seed == "" {
		return literals.NewRandomKeyProvider(), nil
	}
	raw, err := hex.DecodeString(seed)
	if err != nil {
		return nil, fmt.Errorf("invalid seed: %w", err)
	}
	keys, err := literals.NewSeededKeyProvider(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid seed: %w", err)
	}
	return keys, nil
}

func (p *processor) dir(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != root && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") ||
				name == "testdata" || name == "vendor") {
				return fs.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(name, ".go") {
			return nil
		}
		if p.excluded(name) {
			p.log.Debug("skipping excluded file", "file", path)
			return nil
		}
		return p.file(path)
	})
}

func (p *processor) excluded(base string) bool {
	for _, pattern := range p.cfg.Exclude {
		if ok, err := filepath.Match(pattern, base); err == nil && ok {
			return true
		}
	}
	return false
}

func (p *processor) file(path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	out, n, err := p.rew.Source(path, src)
	if err != nil {
		return err
	}
	if n > 0 {
		p.checkRuntimeRequirement(filepath.Dir(path))
	}

	switch {
	case p.opts.list:
		if n > 0 {
			fmt.Fprintln(p.out, path)
		}
	case p.opts.write:
		if n == 0 {
			return nil
		}
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, out, info.Mode().Perm()); err != nil {
			return err
		}
		p.log.Info("rewrote file", "file", path, "literals", n)
	default:
		if _, err := p.out.Write(out); err != nil {
			return err
		}
	}
	return nil
}

// checkRuntimeRequirement warns once per module when the go.mod governing
// dir does not require the module providing the runtime package. Generated
// code imports that package, so a missing requirement breaks the build.
func (p *processor) checkRuntimeRequirement(dir string) {
	gomod, ok := findGoMod(dir)
	if !ok || p.checkedMods[gomod] {
		return
	}
	p.checkedMods[gomod] = true

	data, err := os.ReadFile(gomod)
	if err != nil {
		p.log.Debug("cannot read go.mod", "path", gomod, "error", err)
		return
	}
	f, err := modfile.Parse(gomod, data, nil)
	if err != nil {
		p.log.Debug("cannot parse go.mod", "path", gomod, "error", err)
		return
	}

	target := p.rew.RuntimePath()
	if f.Module != nil && pathContains(f.Module.Mod.Path, target) {
		return
	}
	for _, req := range f.Require {
		if pathContains(req.Mod.Path, target) {
			return
		}
	}
	p.log.Warn("module does not require the runtime package; generated code will not build",
		"go.mod", gomod, "runtime", target)
}

func findGoMod(dir string) (string, bool) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", false
	}
	for {
		path := filepath.Join(dir, "go.mod")
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

func pathContains(modPath, importPath string) bool {
	return importPath == modPath || strings.HasPrefix(importPath, modPath+"/")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
