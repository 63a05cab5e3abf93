package parser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/codegraph/internal/hash"
	"github.com/Aman-CERP/codegraph/internal/model"
)

func TestParse_UnknownLanguageWholeFile(t *testing.T) {
	source := []byte("some opaque content\nwith two lines")

	chunks, edges, err := NewExtractor().Parse(context.Background(), source, model.LangUnknown)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Empty(t, edges)

	c := chunks[0]
	assert.Equal(t, model.KindBlock, c.Kind)
	assert.Equal(t, string(source), c.Content)
	assert.Equal(t, hash.FromContent(source), c.ContentHash)
	assert.Equal(t, 0, c.ByteStart)
	assert.Equal(t, len(source), c.ByteEnd)
	assert.Equal(t, 1, c.LineStart)
	assert.Equal(t, 2, c.LineEnd)
	assert.Empty(t, c.SymbolName)
	assert.Empty(t, c.ModuleID, "module id is stamped by the pipeline, not the parser")
}

func TestParse_GoFunctions(t *testing.T) {
	source := []byte(`package main

// Greet says hello.
func Greet(name string) string {
	return process(name)
}

func process(name string) string {
	return name
}
`)

	chunks, edges, err := NewExtractor().Parse(context.Background(), source, model.LangGo)
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	greet := chunks[0]
	assert.Equal(t, "Greet", greet.SymbolName)
	assert.Equal(t, model.KindFunction, greet.Kind)
	assert.Equal(t, 4, greet.LineStart)

	// Byte offsets are real file positions, not content-relative.
	assert.Equal(t, greet.Content, string(source[greet.ByteStart:greet.ByteEnd]))
	process := chunks[1]
	assert.Equal(t, process.Content, string(source[process.ByteStart:process.ByteEnd]))
	assert.Greater(t, process.ByteStart, greet.ByteEnd, "chunks must not overlap")
	assert.Equal(t, "func Greet(name string) string", greet.Signature)
	assert.Equal(t, "Greet says hello.", greet.Docstring)
	assert.Equal(t, hash.FromContent([]byte(greet.Content)), greet.ContentHash)

	// Greet calls process.
	var callTargets []string
	for _, e := range edges {
		if e.SourceHash == greet.ContentHash && e.Kind == model.EdgeCalls {
			callTargets = append(callTargets, e.TargetQuery)
		}
	}
	assert.Contains(t, callTargets, "process")
}

func TestParse_RustStructAndCalls(t *testing.T) {
	source := []byte(`/// A user record.
struct User {
    name: String,
}

fn load() {
    let u = fetch_user();
    GitRepository::open();
}
`)

	chunks, edges, err := NewExtractor().Parse(context.Background(), source, model.LangRust)
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	assert.Equal(t, model.KindStruct, chunks[0].Kind)
	assert.Equal(t, "User", chunks[0].SymbolName)
	assert.Equal(t, "A user record.", chunks[0].Docstring)

	load := chunks[1]
	assert.Equal(t, "load", load.SymbolName)

	targets := make(map[string]bool)
	for _, e := range edges {
		if e.SourceHash == load.ContentHash {
			targets[e.TargetQuery] = true
		}
	}
	assert.True(t, targets["fetch_user"])
	assert.True(t, targets["GitRepository::open"], "scoped call targets keep their path")
}

func TestParse_PythonClassAndImports(t *testing.T) {
	source := []byte(`import os

class Loader:
    def run(self):
        return os.getcwd()

def main():
    loader = Loader()
`)

	chunks, edges, err := NewExtractor().Parse(context.Background(), source, model.LangPython)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, model.KindClass, chunks[0].Kind)
	assert.Equal(t, "Loader", chunks[0].SymbolName)
	assert.Equal(t, "main", chunks[1].SymbolName)

	var mainCalls []string
	for _, e := range edges {
		if e.SourceHash == chunks[1].ContentHash && e.Kind == model.EdgeCalls {
			mainCalls = append(mainCalls, e.TargetQuery)
		}
	}
	assert.Contains(t, mainCalls, "Loader")
}

func TestParse_EdgeLineNumbers(t *testing.T) {
	source := []byte(`fn a() {
    b();
    c();
}
`)

	chunks, edges, err := NewExtractor().Parse(context.Background(), source, model.LangRust)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	require.Len(t, edges, 2)
	assert.Equal(t, 2, edges[0].LineNumber)
	assert.Equal(t, 3, edges[1].LineNumber)
	for _, e := range edges {
		assert.Equal(t, chunks[0].ContentHash, e.SourceHash,
			"edge source is the hash of the chunk it lives inside")
	}
}

func TestParse_HclResource(t *testing.T) {
	source := []byte(`resource "aws_s3_bucket" "assets" {
  bucket = "my-assets"
}

variable "region" {
  default = "us-east-1"
}
`)

	chunks, _, err := NewExtractor().Parse(context.Background(), source, model.LangHcl)
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	assert.Equal(t, model.KindResource, chunks[0].Kind)
	assert.Equal(t, "aws_s3_bucket.assets", chunks[0].SymbolName)
	assert.Equal(t, model.KindVariable, chunks[1].Kind)
	assert.Equal(t, "region", chunks[1].SymbolName)
}

func TestParse_EmptySupportedFileFallsBack(t *testing.T) {
	chunks, edges, err := NewExtractor().Parse(context.Background(), []byte("// nothing here\n"), model.LangGo)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, model.KindBlock, chunks[0].Kind)
	assert.Empty(t, edges)
}
