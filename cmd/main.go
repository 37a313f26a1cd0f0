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

package main

import (
	"fmt"
	"log"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tesoro-finance/tesoro"
	"github.com/tesoro-finance/tesoro/chain"
	"github.com/tesoro-finance/tesoro/config"
	"github.com/tesoro-finance/tesoro/pipeline"
	"github.com/tesoro-finance/tesoro/store"
)

// Tesoro represents the CLI application, encapsulating the root Cobra command.
type Tesoro struct {
	cmd *cobra.Command
}

// tesoroInstance holds the orchestrator instance and its configuration for
// use by the subcommands.
type tesoroInstance struct {
	tesoro *tesoro.Tesoro
	cnf    *config.Configuration
}

// recoverPanic handles any panics during program execution and logs the error.
func recoverPanic() {
	if rec := recover(); rec != nil {
		logrus.Error(rec)
		os.Exit(1)
	}
}

// preRun loads the configuration and builds the orchestrator before any
// command executes.
func preRun(app *tesoroInstance) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := config.InitConfig("tesoro.json")
		if err != nil {
			log.Fatal("error loading config", err)
		}

		cnf, err := config.Fetch()
		if err != nil {
			return err
		}

		newTesoro, err := setupTesoro(cnf)
		if err != nil {
			log.Fatal(err)
		}

		app.tesoro = newTesoro
		app.cnf = cnf
		return nil
	}
}

// setupTesoro assembles the orchestrator: the snapshot directory, the chain
// backend and the two pipeline stages.
func setupTesoro(cfg *config.Configuration) (*tesoro.Tesoro, error) {
	snapshots, err := store.NewSnapshots(cfg.Storage.Dir)
	if err != nil {
		return nil, fmt.Errorf("error preparing storage directory: %v", err)
	}

	backend := chain.NewEthereumBackend(cfg.Chain)
	llm := pipeline.NewLLMClient(cfg.Pipeline)
	proposals := pipeline.NewLLMProposalPipeline(cfg.Pipeline, llm)
	executions := pipeline.NewChainExecutionPipeline(backend)

	return tesoro.NewTesoro(store.New(), snapshots, proposals, executions), nil
}

// NewCLI creates the command-line interface for the Tesoro service.
func NewCLI() *Tesoro {
	var configFile string
	b := &tesoroInstance{}

	var rootCmd = &cobra.Command{
		Use:   "tesoro",
		Short: "Treasury payment workflow orchestrator",
		Run:   func(cmd *cobra.Command, args []string) {},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "./tesoro.json", "Configuration file for the tesoro server")
	rootCmd.PersistentPreRunE = preRun(b)

	rootCmd.AddCommand(serverCommands(b))

	return &Tesoro{cmd: rootCmd}
}

// executeCLI runs the CLI and reports any command error.
func (w Tesoro) executeCLI() {
	if err := w.cmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func main() {
	defer recoverPanic()
	cli := NewCLI()
	cli.executeCLI()
}
