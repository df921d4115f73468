//go:build tools

package tools

import (
	// Mock generation. Run: go run github.com/vektra/mockery/v2
	_ "github.com/vektra/mockery/v2"
)
