package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mkrogh/sitegen/internal/config"
	ferrors "github.com/mkrogh/sitegen/internal/foundation/errors"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Dir   string `arg:"" optional:"" default:"." help:"Directory to scaffold the site in"`
	Force bool   `help:"Overwrite existing files"`
}

func (i *InitCmd) Run(_ *Global, _ *CLI) error {
	return RunInit(i.Dir, i.Force)
}

// RunInit scaffolds a new site: configuration file, starter layouts and a
// sample post. Existing files are left alone unless force is set.
func RunInit(dir string, force bool) error {
	fmt.Printf("Initializing site in %s\n", dir)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "creating site directory").
			WithContext("path", dir).
			Build()
	}

	cfgPath := filepath.Join(dir, config.DefaultConfigFile)
	if err := config.Init(cfgPath, force); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryConfig, "writing configuration").Build()
	}
	fmt.Printf("  wrote %s\n", cfgPath)

	for _, f := range starterFiles() {
		path := filepath.Join(dir, filepath.FromSlash(f.rel))
		wrote, err := writeStarterFile(path, f.content, force)
		if err != nil {
			return err
		}
		if wrote {
			fmt.Printf("  wrote %s\n", path)
		} else {
			fmt.Printf("  kept %s\n", path)
		}
	}

	fmt.Println("Site initialized. Try: sitegen build", dir, filepath.Join(dir, "public"))
	return nil
}

// writeStarterFile writes one scaffold file, skipping files that already
// exist unless force is set. Returns whether the file was written.
func writeStarterFile(path, content string, force bool) (bool, error) {
	if _, err := os.Stat(path); err == nil && !force {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, ferrors.WrapError(err, ferrors.CategoryFileSystem, "creating scaffold directory").
			WithContext("path", filepath.Dir(path)).
			Build()
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return false, ferrors.WrapError(err, ferrors.CategoryFileSystem, "writing scaffold file").
			WithContext("path", path).
			Build()
	}
	return true, nil
}

// starterFile is one scaffold entry, path relative to the site directory.
type starterFile struct {
	rel     string
	content string
}

// starterFiles returns the scaffold tree: a base layout, a post layout
// chained onto it, a sample post and a stylesheet the base layout links.
func starterFiles() []starterFile {
	today := time.Now().Format("2006-01-02")

	return []starterFile{
		{"_layouts/base.html", `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{title}} - {{site.title}}</title>
  <link rel="stylesheet" href="/assets/site.css">
</head>
<body>
  <header><a href="/">{{site.title}}</a></header>
  <main>
{{content}}
  </main>
  <footer>Built with sitegen</footer>
</body>
</html>
`},
		{"_layouts/post.html", `---
layout: base
---
<article>
  <h1>{{title}}</h1>
  <p class="meta">{{date}}</p>
{{content}}
</article>
`},
		{"posts/welcome.md", `---
title: Welcome
date: ` + today + `
layout: post
tags: [meta]
---
# Hello

This is your first post. Edit it, add more files next to it, and run the
build again. Only changed documents are re-rendered.
`},
		{"assets/site.css", `body {
  max-width: 44rem;
  margin: 0 auto;
  padding: 1rem;
  font-family: system-ui, sans-serif;
  line-height: 1.6;
}

header {
  border-bottom: 1px solid #ddd;
  padding-bottom: 0.5rem;
  margin-bottom: 1.5rem;
}

.meta {
  color: #667;
  font-size: 0.9rem;
}
`},
	}
}
