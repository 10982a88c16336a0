package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestMainPackageImports verifies that the main package can be compiled
// and that all imports are resolved correctly.
func TestMainPackageImports(t *testing.T) {
	t.Parallel()
	// This test simply verifies the package compiles correctly
	// The actual functionality is tested via integration tests
	assert.True(t, true)
}

// Note: Full end-to-end testing of main.go requires:
// 1. A running MySQL server
// 2. A real or mock S3/R2 endpoint
// 3. Environment variables set correctly
//
// These are better suited for integration tests that run in CI
// with proper test infrastructure (Docker containers, localstack, etc.)
//
// The internal packages are tested individually:
// - internal/dump: engine state machine, batching, encoding, sinks,
//   pool registry (driven by an injected fake row producer)
// - internal/compress: file compression round trips
// - internal/config, internal/errors, internal/encrypt,
//   internal/storage, internal/notify
// - internal/schema requires a live server and is exercised end to end
