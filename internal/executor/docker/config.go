package docker

import (
	"time"
)

// Language describes how to sandbox one language: which image to run and
// how to hand it the source.
type Language struct {
	// Image is the Docker image to use for execution.
	Image string
	// Command produces the argv that runs the given source inside the container.
	Command func(source string) []string
}

// Config holds the configuration for Docker execution.
type Config struct {
	// Languages maps a code file's language field to its sandbox.
	// Lookup is exact (the language field is free text; "Python" and
	// "python" are different files but only "python" runs).
	Languages map[string]Language
	// MemoryLimit is the maximum amount of memory a container can use (in bytes).
	MemoryLimit int64
	// CPULimit is the number of CPUs a container can use.
	CPULimit float64
	// Timeout is the maximum amount of time one execution can take.
	Timeout time.Duration
	// PoolSize is the number of pre-warmed containers to maintain per language.
	PoolSize int
}

// DefaultConfig provides sandboxes for the languages the editor ships
// runners for, with tight resource caps.
func DefaultConfig() Config {
	return Config{
		Languages: map[string]Language{
			"python": {
				Image:   "python:3.12-alpine",
				Command: func(source string) []string { return []string{"python", "-c", source} },
			},
			"javascript": {
				Image:   "node:22-alpine",
				Command: func(source string) []string { return []string{"node", "-e", source} },
			},
		},
		// 128 MB memory limit
		MemoryLimit: 128 * 1024 * 1024,
		// 0.5 CPU shares
		CPULimit: 0.5,
		// 5 second default timeout
		Timeout:  5 * time.Second,
		PoolSize: 2,
	}
}
