/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package processor

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/suparena/tablestore/sas"
)

// accountKeyEnv names the environment variable holding the base64 account key.
const accountKeyEnv = "TABLESTORE_ACCOUNT_KEY"

// policyFile is the YAML shape of a SAS policy description.
type policyFile struct {
	Account     string `yaml:"account"`
	Table       string `yaml:"table"`
	Permissions string `yaml:"permissions"`
	Start       string `yaml:"start"`
	Expiry      string `yaml:"expiry"`
	Identifier  string `yaml:"identifier"`

	StartPartitionKey string `yaml:"startPartitionKey"`
	StartRowKey       string `yaml:"startRowKey"`
	EndPartitionKey   string `yaml:"endPartitionKey"`
	EndRowKey         string `yaml:"endRowKey"`
}

var configPath = flag.String("config", "sas-policy.yaml", "Path to the SAS policy YAML file")

// Main is the entry point of the SAS minting tool.
func Main() {
	if !flag.Parsed() {
		flag.Parse()
	}

	token, err := run(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}

// run loads the policy file and environment, and returns the signed token.
func run(configPath string) (string, error) {
	// A .env alongside the policy file is a convenience, not a requirement.
	_ = godotenv.Load()

	data, err := os.ReadFile(configPath)
	if err != nil {
		return "", fmt.Errorf("failed to read policy file: %w", err)
	}
	var pf policyFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return "", fmt.Errorf("failed to parse policy file: %w", err)
	}

	key := os.Getenv(accountKeyEnv)
	if key == "" {
		return "", fmt.Errorf("%s is not set", accountKeyEnv)
	}
	cred, err := sas.NewAccountKey(pf.Account, key)
	if err != nil {
		return "", err
	}

	policy, err := pf.policy()
	if err != nil {
		return "", err
	}
	return sas.GenerateToken(cred, pf.Table, policy, sas.TokenOptions{
		Identifier:        pf.Identifier,
		StartPartitionKey: pf.StartPartitionKey,
		StartRowKey:       pf.StartRowKey,
		EndPartitionKey:   pf.EndPartitionKey,
		EndRowKey:         pf.EndRowKey,
	})
}

// policy converts the file's string fields into a SharedAccessPolicy.
func (pf *policyFile) policy() (sas.SharedAccessPolicy, error) {
	perms, err := sas.ParsePermissions(pf.Permissions)
	if err != nil {
		return sas.SharedAccessPolicy{}, err
	}
	policy := sas.SharedAccessPolicy{Permissions: perms}
	if pf.Start != "" {
		policy.Start, err = time.Parse(time.RFC3339, pf.Start)
		if err != nil {
			return sas.SharedAccessPolicy{}, fmt.Errorf("invalid start time: %w", err)
		}
	}
	if pf.Expiry != "" {
		policy.Expiry, err = time.Parse(time.RFC3339, pf.Expiry)
		if err != nil {
			return sas.SharedAccessPolicy{}, fmt.Errorf("invalid expiry time: %w", err)
		}
	}
	return policy, nil
}
