package watchlist

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestCacheLoadsValidDefinition(t *testing.T) {
	tempDir := t.TempDir()
	writeFile(t, tempDir, "docs.yml", `
title: "Example Docs"
description: "Product documentation"
url: "https://example.com/docs"
category: "Docs"
`)

	cache := NewCache(tempDir)
	if err := cache.Run(); err != nil {
		t.Fatal(err)
	}

	if cache.Count() != 1 {
		t.Fatalf("Expected 1 definition, got %d", cache.Count())
	}

	defs := cache.GetDefinitions()
	def := defs[0]
	if def.Name != "docs" {
		t.Errorf("Expected name 'docs' from filename, got %q", def.Name)
	}
	if def.Title != "Example Docs" {
		t.Errorf("Expected title, got %q", def.Title)
	}
	if def.URL != "https://example.com/docs" {
		t.Errorf("Expected URL, got %q", def.URL)
	}
	if def.Status != "Healthy" {
		t.Errorf("Expected default status 'Healthy', got %q", def.Status)
	}
	if def.Category != "Docs" {
		t.Errorf("Expected category 'Docs', got %q", def.Category)
	}
}

func TestCacheSkipsInvalidFiles(t *testing.T) {
	tempDir := t.TempDir()
	writeFile(t, tempDir, "good.yml", "title: Good\nurl: https://example.com/good\n")
	writeFile(t, tempDir, "no-url.yml", "title: Missing URL\n")
	writeFile(t, tempDir, "broken.yml", "title: [unterminated\n")

	cache := NewCache(tempDir)
	if err := cache.Run(); err != nil {
		t.Fatal(err)
	}

	if cache.Count() != 1 {
		t.Errorf("Expected only the valid definition, got %d", cache.Count())
	}
}

func TestCacheMissingDirectory(t *testing.T) {
	cache := NewCache(filepath.Join(t.TempDir(), "does-not-exist"))
	if err := cache.Run(); err != nil {
		t.Errorf("Expected missing directory to be tolerated, got %v", err)
	}
	if cache.Count() != 0 {
		t.Errorf("Expected no definitions, got %d", cache.Count())
	}
}

func TestCacheDefinitionsSortedByName(t *testing.T) {
	tempDir := t.TempDir()
	writeFile(t, tempDir, "zeta.yml", "title: Z\nurl: https://example.com/z\n")
	writeFile(t, tempDir, "alpha.yaml", "title: A\nurl: https://example.com/a\n")

	cache := NewCache(tempDir)
	if err := cache.Run(); err != nil {
		t.Fatal(err)
	}

	defs := cache.GetDefinitions()
	if len(defs) != 2 || defs[0].Name != "alpha" || defs[1].Name != "zeta" {
		t.Errorf("Expected sorted definitions, got %v", defs)
	}
}
