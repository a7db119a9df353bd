package main

import (
	"fmt"

	"github.com/lex00/authgate-aws-go/internal/config"
)

// loadDeployment reads the deployment settings, forcing topology when set.
func loadDeployment(envFile, topology string) (config.Deployment, error) {
	v, err := config.New(envFile)
	if err != nil {
		return config.Deployment{}, err
	}
	if topology != "" {
		v.Set("topology", topology)
	}

	d, err := config.LoadDeployment(v)
	if err != nil {
		return config.Deployment{}, fmt.Errorf("deployment configuration: %w", err)
	}
	return d, nil
}
