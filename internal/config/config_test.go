package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/gridworld/internal/agents"
	"github.com/talgya/gridworld/internal/calendar"
	"github.com/talgya/gridworld/internal/economy"
	"github.com/talgya/gridworld/internal/telemetry"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gridsim.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, calendar.DefaultSpeed, cfg.SpeedIndex)
	assert.Zero(t, cfg.Seed)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 8080, cfg.API.Port)
	assert.Empty(t, cfg.API.AdminKey)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.API.CORSOrigins)
	assert.Empty(t, cfg.Journal.Path)
	assert.Equal(t, telemetry.DefaultCapacity, cfg.Sink.Capacity)

	plant := cfg.PlantConfig()
	assert.Equal(t, int64(agents.DefaultFuel), plant.Fuel)
	assert.InDelta(t, agents.DefaultPlantBalance, plant.Balance, 1e-9)

	factories, err := cfg.FactoryConfigs()
	require.NoError(t, err)
	assert.Nil(t, factories)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
speed_index: 5
seed: 99
log:
  level: debug
api:
  port: 9090
  admin_key: secret
journal:
  path: /tmp/grid.db
plant:
  fuel: 200
  balance: 5000
factories:
  - name: Harbor Foods
    industry: Food
    balance: 4000
    products: [bread]
  - industry: electronics
    balance: 9000
    solar_panels: 2
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.SpeedIndex)
	assert.Equal(t, int64(99), cfg.Seed)
	assert.Equal(t, 9090, cfg.API.Port)
	assert.Equal(t, "secret", cfg.API.AdminKey)
	assert.Equal(t, "/tmp/grid.db", cfg.Journal.Path)
	assert.Equal(t, int64(200), cfg.PlantConfig().Fuel)
	assert.Equal(t, int64(agents.DefaultFuelCapacity), cfg.PlantConfig().FuelCapacity)

	factories, err := cfg.FactoryConfigs()
	require.NoError(t, err)
	require.Len(t, factories, 2)
	assert.Equal(t, "Harbor Foods", factories[0].Name)
	assert.Equal(t, economy.Food, factories[0].Industry)
	assert.Equal(t, []economy.ProductID{"bread"}, factories[0].Products)
	assert.Equal(t, economy.Electronics, factories[1].Industry)
	assert.Empty(t, factories[1].Products)
	assert.Equal(t, 2, factories[1].SolarPanels)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "api:\n  port: 9090\n")
	t.Setenv("GRIDSIM_API_PORT", "7070")
	t.Setenv("GRIDSIM_SPEED_INDEX", "1")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.API.Port)
	assert.Equal(t, 1, cfg.SpeedIndex)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]string{
		"unknown industry":   "factories:\n  - industry: mining\n",
		"unknown product":    "factories:\n  - industry: food\n    products: [caviar]\n",
		"foreign product":    "factories:\n  - industry: food\n    products: [radios]\n",
		"speed out of range": "speed_index: 7\n",
		"bad level":          "log:\n  level: loud\n",
		"negative balance":   "factories:\n  - industry: metal\n    balance: -5\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("critical")
	require.NoError(t, err)
	assert.Equal(t, telemetry.LevelCritical, lvl)

	lvl, err = ParseLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, lvl)
}
