/*
Copyright 2025 Tesoro Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitConfigMissingFileUsesDefaults(t *testing.T) {
	err := InitConfig(filepath.Join(t.TempDir(), "does-not-exist.json"))
	require.NoError(t, err)

	cnf, err := Fetch()
	require.NoError(t, err)
	assert.Equal(t, "Tesoro Server", cnf.ProjectName)
	assert.Equal(t, DEFAULT_PORT, cnf.Server.Port)
	assert.Equal(t, DEFAULT_STORAGE_DIR, cnf.Storage.Dir)
	assert.Equal(t, DEFAULT_USDT_CONTRACT, cnf.Chain.UsdtContract)
	assert.Equal(t, 120, cnf.Pipeline.TimeoutSec)
}

func TestInitConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "tesoro.json")
	payload := `{
		"project_name": "tesoro-test",
		"server": {"port": "7001"},
		"storage": {"dir": " /tmp/tesoro-artifacts "},
		"pipeline": {"risk_model": "gpt-4o", "proposal_model": "gpt-4o"}
	}`
	require.NoError(t, os.WriteFile(file, []byte(payload), 0o644))

	require.NoError(t, InitConfig(file))
	cnf, err := Fetch()
	require.NoError(t, err)
	assert.Equal(t, "tesoro-test", cnf.ProjectName)
	assert.Equal(t, "7001", cnf.Server.Port)
	assert.Equal(t, "/tmp/tesoro-artifacts", cnf.Storage.Dir)
	assert.Equal(t, "gpt-4o", cnf.Pipeline.RiskModel)
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("TESORO_SERVER_PORT", "9100")
	t.Setenv("TESORO_CHAIN_RPC_URL", "https://mainnet.example/v3/key")

	err := InitConfig(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)

	cnf, err := Fetch()
	require.NoError(t, err)
	assert.Equal(t, "9100", cnf.Server.Port)
	assert.Equal(t, "https://mainnet.example/v3/key", cnf.Chain.RpcUrl)
}

func TestRateLimitDefaults(t *testing.T) {
	rps := 10.0
	cnf := &Configuration{RateLimit: RateLimitConfig{RequestsPerSecond: &rps}}
	require.NoError(t, cnf.validateAndAddDefaults())
	require.NotNil(t, cnf.RateLimit.Burst)
	assert.Equal(t, 20, *cnf.RateLimit.Burst)
	require.NotNil(t, cnf.RateLimit.CleanupIntervalSec)
	assert.Equal(t, 10800, *cnf.RateLimit.CleanupIntervalSec)
}
