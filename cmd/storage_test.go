package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "512 B", formatSize(512))
	assert.Equal(t, "1.0 KiB", formatSize(1024))
	assert.Equal(t, "10.0 MiB", formatSize(10<<20))
	assert.Equal(t, "1.5 GiB", formatSize(3<<29))
}
