//go:build benchmark

// Package benchmark contains consolidated benchmark tests for scopedkv.
//
// This package aggregates benchmarks from across the codebase to enable
// easy performance regression testing.
//
// Run with: go test -tags=benchmark -bench=. -benchmem ./test/benchmark/...
//
// Benchmarks are organized by component:
//   - store_bench_test.go: Store operations and credential validation
//   - resolver_bench_test.go: Identity canonicalization and policy resolution
package benchmark
