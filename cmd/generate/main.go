package main

import (
	"log"
	"os"
	"path/filepath"

	"github.com/rxtech-lab/argo-walkforward/internal/backtest"
	"github.com/rxtech-lab/argo-walkforward/internal/optimizer"
	"gopkg.in/yaml.v2"
)

type schemaTarget struct {
	schemaName string
	configName string
	schemaJSON func() (string, error)
	sample     interface{}
}

func main() {
	backtestConfig := backtest.DefaultConfig()
	optimizerConfig := optimizer.DefaultConfig()

	targets := []schemaTarget{
		{
			schemaName: "backtest-config.json",
			configName: "backtest-config.yaml",
			schemaJSON: backtestConfig.GenerateSchemaJSON,
			sample:     backtestConfig,
		},
		{
			schemaName: "optimizer-config.json",
			configName: "optimizer-config.yaml",
			schemaJSON: optimizerConfig.GenerateSchemaJSON,
			sample:     optimizerConfig,
		},
	}

	if err := os.MkdirAll("./config", 0755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}

	for _, target := range targets {
		schemaJSON, err := target.schemaJSON()
		if err != nil {
			log.Fatalf("Failed to generate schema: %v", err)
		}

		schemaPath := filepath.Join("./config", target.schemaName)
		if err := os.WriteFile(schemaPath, []byte(schemaJSON), 0644); err != nil {
			log.Fatalf("Failed to write schema to file: %v", err)
		}

		log.Printf("Schema successfully generated at %s", schemaPath)

		// write sample config to file if doesn't exist
		samplePath := filepath.Join("./config", target.configName)
		if _, err := os.Stat(samplePath); !os.IsNotExist(err) {
			continue
		}

		yamlBytes, err := yaml.Marshal(target.sample)
		if err != nil {
			log.Fatalf("Failed to marshal sample config to yaml: %v", err)
		}

		yamlBytes = append([]byte("# yaml-language-server: $schema="+target.schemaName+"\n"), yamlBytes...)

		if err := os.WriteFile(samplePath, yamlBytes, 0644); err != nil {
			log.Fatalf("Failed to write sample config to file: %v", err)
		}

		log.Printf("Sample config successfully generated at %s", samplePath)
	}
}
