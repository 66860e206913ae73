// Package idgen provides short, URL-safe unique ID generation backed by nanoid.
package idgen

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for the identifiers issued by this service.
var (
	CanvasPrefix = "cv-"
	NodePrefix   = "node-"
	EdgePrefix   = "edge-"
)

// Alphabet defines the character set used for the random portion of the ID.
var Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Length is the number of random characters generated (excluding the prefix).
var Length = 10

// Generate returns a new unique canvas ID.
func Generate() (string, error) {
	return GenerateWithPrefix(CanvasPrefix)
}

// GenerateWithPrefix returns a new unique ID with the given prefix.
func GenerateWithPrefix(prefix string) (string, error) {
	id, err := nanoid.Generate(Alphabet, Length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return prefix + id, nil
}

// NodeID returns a fresh node ID. It panics only if the system random source
// fails, which nanoid treats as unrecoverable.
func NodeID() string {
	return must(GenerateWithPrefix(NodePrefix))
}

// EdgeID returns a fresh edge ID.
func EdgeID() string {
	return must(GenerateWithPrefix(EdgePrefix))
}

func must(id string, err error) string {
	if err != nil {
		panic(err)
	}
	return id
}
