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
	"encoding/json"
	"errors"
	"log"
	"os"
	"strings"
	"sync/atomic"

	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

const (
	DEFAULT_PORT        = "5001"
	DEFAULT_STORAGE_DIR = "./output"

	// Mainnet USDT contract. Overridable for testnets.
	DEFAULT_USDT_CONTRACT = "0xdAC17F958D2ee523a2206206994597C13D831ec7"
)

var ConfigStore atomic.Value

type ServerConfig struct {
	Secure    bool   `json:"secure" envconfig:"TESORO_SERVER_SECURE"`
	SecretKey string `json:"secret_key" envconfig:"TESORO_SERVER_SECRET_KEY"`
	Port      string `json:"port" envconfig:"TESORO_SERVER_PORT"`
}

type StorageConfig struct {
	Dir string `json:"dir" envconfig:"TESORO_STORAGE_DIR"`
}

// PipelineConfig carries the LLM settings for the proposal pipeline. The
// endpoint is any OpenAI-compatible chat completions API.
type PipelineConfig struct {
	Endpoint      string `json:"endpoint" envconfig:"TESORO_PIPELINE_ENDPOINT"`
	APIKey        string `json:"api_key" envconfig:"TESORO_PIPELINE_API_KEY"`
	RiskModel     string `json:"risk_model" envconfig:"TESORO_PIPELINE_RISK_MODEL"`
	ProposalModel string `json:"proposal_model" envconfig:"TESORO_PIPELINE_PROPOSAL_MODEL"`
	TimeoutSec    int    `json:"timeout_sec" envconfig:"TESORO_PIPELINE_TIMEOUT_SEC"`
}

// ChainConfig configures the payment backend. An empty RpcUrl puts the
// backend in simulation mode.
type ChainConfig struct {
	RpcUrl       string `json:"rpc_url" envconfig:"TESORO_CHAIN_RPC_URL"`
	UsdtContract string `json:"usdt_contract" envconfig:"TESORO_CHAIN_USDT_CONTRACT"`
}

type RateLimitConfig struct {
	RequestsPerSecond  *float64 `json:"requests_per_second" envconfig:"TESORO_RATE_LIMIT_RPS"`
	Burst              *int     `json:"burst" envconfig:"TESORO_RATE_LIMIT_BURST"`
	CleanupIntervalSec *int     `json:"cleanup_interval_sec" envconfig:"TESORO_RATE_LIMIT_CLEANUP_INTERVAL_SEC"`
}

type Configuration struct {
	ProjectName     string          `json:"project_name" envconfig:"TESORO_PROJECT_NAME"`
	EnableTelemetry bool            `json:"enable_telemetry" envconfig:"TESORO_ENABLE_TELEMETRY"`
	Server          ServerConfig    `json:"server"`
	Storage         StorageConfig   `json:"storage"`
	Pipeline        PipelineConfig  `json:"pipeline"`
	Chain           ChainConfig     `json:"chain"`
	RateLimit       RateLimitConfig `json:"rate_limit"`
}

func loadConfigFromFile(file string) error {
	var cnf Configuration
	_, err := os.Stat(file)
	if err == nil {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		err = json.NewDecoder(f).Decode(&cnf)
		if err != nil {
			return err
		}

	} else if errors.Is(err, os.ErrNotExist) {
		log.Println("config json not passed, will use env variables")
	}

	// override config from environment variables
	err = envconfig.Process("tesoro", &cnf)
	if err != nil {
		return err
	}

	err = cnf.validateAndAddDefaults()
	if err != nil {
		return err
	}

	ConfigStore.Store(&cnf)
	return err
}

func InitConfig(configFile string) error {
	logger()
	return loadConfigFromFile(configFile)
}

func Fetch() (*Configuration, error) {
	config := ConfigStore.Load()
	c, ok := config.(*Configuration)
	if !ok {
		return nil, errors.New("config not loaded from file. Create a json file called tesoro.json with your config ❌")
	}
	return c, nil
}

func (cnf *Configuration) validateAndAddDefaults() error {
	if cnf.ProjectName == "" {
		log.Println("Warning: Project name is empty. Setting a default name.")
		cnf.ProjectName = "Tesoro Server"
	}

	// Trim white spaces from fields
	cnf.ProjectName = strings.TrimSpace(cnf.ProjectName)
	cnf.Server.Port = strings.TrimSpace(cnf.Server.Port)
	cnf.Storage.Dir = strings.TrimSpace(cnf.Storage.Dir)
	cnf.Pipeline.Endpoint = strings.TrimSpace(cnf.Pipeline.Endpoint)
	cnf.Chain.RpcUrl = strings.TrimSpace(cnf.Chain.RpcUrl)

	// Set default value for Port if it's empty
	if cnf.Server.Port == "" {
		cnf.Server.Port = DEFAULT_PORT
		log.Printf("Warning: Port not specified in config. Setting default port: %s", DEFAULT_PORT)
	}

	if cnf.Storage.Dir == "" {
		cnf.Storage.Dir = DEFAULT_STORAGE_DIR
	}

	if cnf.Pipeline.Endpoint == "" {
		cnf.Pipeline.Endpoint = "https://api.openai.com/v1"
	}
	if cnf.Pipeline.RiskModel == "" {
		cnf.Pipeline.RiskModel = "gpt-4o-mini"
	}
	if cnf.Pipeline.ProposalModel == "" {
		cnf.Pipeline.ProposalModel = "gpt-4o-mini"
	}
	if cnf.Pipeline.TimeoutSec <= 0 {
		cnf.Pipeline.TimeoutSec = 120
	}

	if cnf.Chain.UsdtContract == "" {
		cnf.Chain.UsdtContract = DEFAULT_USDT_CONTRACT
	}

	// Rate limiting is disabled by default (when both RPS and Burst are nil)
	if cnf.RateLimit.RequestsPerSecond != nil && cnf.RateLimit.Burst == nil {
		defaultBurst := 2 * int(*cnf.RateLimit.RequestsPerSecond)
		cnf.RateLimit.Burst = &defaultBurst
		log.Printf("Warning: Rate limit burst not specified. Setting default value: %d", defaultBurst)
	}
	if cnf.RateLimit.RequestsPerSecond == nil && cnf.RateLimit.Burst != nil {
		defaultRPS := float64(*cnf.RateLimit.Burst) / 2
		cnf.RateLimit.RequestsPerSecond = &defaultRPS
		log.Printf("Warning: Rate limit RPS not specified. Setting default value: %.2f", defaultRPS)
	}

	// Set default cleanup interval if not specified
	if cnf.RateLimit.CleanupIntervalSec == nil {
		defaultCleanup := 10800 // 3 hours in seconds
		cnf.RateLimit.CleanupIntervalSec = &defaultCleanup
	}

	return nil
}

// MockConfig sets a mock configuration for testing purposes.
func MockConfig(mockConfig *Configuration) {
	ConfigStore.Store(mockConfig)
}

func logger() {
	logger := logrus.New()
	log.SetOutput(logger.Writer())
}
