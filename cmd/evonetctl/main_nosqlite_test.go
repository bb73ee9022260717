//go:build !sqlite

package main

import (
	"context"
	"strings"
	"testing"
)

func TestStoredModelCommandsNameBuildTag(t *testing.T) {
	for _, args := range [][]string{
		{"list"},
		{"show", "--id", "m1"},
		{"delete", "--id", "m1"},
		{"replicate", "--id", "m1"},
	} {
		err := run(context.Background(), args)
		if err == nil || !strings.Contains(err.Error(), "-tags sqlite") {
			t.Fatalf("%s: expected sqlite build tag error, got %v", args[0], err)
		}
	}
}
