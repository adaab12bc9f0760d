package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Mosical/pico-venti/internal/configuration"
	"github.com/Mosical/pico-venti/internal/hwio"
	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
)

func TestDetectUsesPlatformFromConfigFile(t *testing.T) {
	// GIVEN
	pterm.DisableOutput()
	defer pterm.EnableOutput()

	configContent := `platform:
  backend: sim
sensors:
  - id: ambient
    sht4x:
      i2cChannel: 0
      i2cAddress: 0x44
      precision: low
`
	configPath := filepath.Join(t.TempDir(), "pico-venti.yaml")
	assert.NoError(t, os.WriteFile(configPath, []byte(configContent), 0644))
	configuration.InitConfig(configPath)

	// WHEN
	p, err := createDetectPlatform()

	// THEN
	// the configured sim backend answers at the configured address,
	// ignoring the config file would leave us on the periph default
	assert.NoError(t, err)
	defer func() {
		_ = p.Close()
	}()
	i2cManager := hwio.NewI2CManager(p)
	assert.True(t, i2cManager.Probe(0, 0x44))
	assert.False(t, i2cManager.Probe(0, 0x45))
}
