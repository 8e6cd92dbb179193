package buildinfo

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetFillsUnknownValues(t *testing.T) {
	info := Get()

	assert.NotEmpty(t, info.Version)
	assert.Equal(t, UnknownValue, info.BuildDate)
	assert.True(t, strings.HasPrefix(info.GoVersion, "go"))
}

func TestInfoFormatting(t *testing.T) {
	info := Info{Version: "1.2.0", BuildDate: "2024-03-10", GoVersion: "go1.26.0"}

	assert.Equal(t, "orderlens@1.2.0", info.Release())
	assert.Equal(t, "OrderLens 1.2.0 (built 2024-03-10, go1.26.0)", info.String())
}
