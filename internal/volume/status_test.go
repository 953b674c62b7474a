package volume

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestBuildStatus(t *testing.T) {
	met := BuildStatus("1280", decimal.NewFromInt(250), decimal.NewFromInt(200))
	assert.True(t, met.VolumeMet)
	assert.True(t, met.RemainingVolume.IsZero())

	exact := BuildStatus("1280", decimal.NewFromInt(200), decimal.NewFromInt(200))
	assert.True(t, exact.VolumeMet)
	assert.True(t, exact.RemainingVolume.IsZero())

	unmet := BuildStatus("1280", decimal.NewFromInt(50), decimal.NewFromInt(200))
	assert.False(t, unmet.VolumeMet)
	assert.True(t, unmet.RemainingVolume.Equal(decimal.NewFromInt(150)))

	empty := BuildStatus("1280", decimal.Zero, decimal.Zero)
	assert.True(t, empty.VolumeMet, "no obligation counts as met")
	assert.True(t, empty.RemainingVolume.IsZero())
}
