package main

import (
	"context"
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"go.uber.org/zap"

	"github.com/instrumentdb/insdb/internal/cli/config"
	"github.com/instrumentdb/insdb/pkg/insdb"
	"github.com/instrumentdb/insdb/pkg/insdb/local"
	"github.com/instrumentdb/insdb/pkg/insdb/remote"
)

// openDatabase opens the database selected by the flags and the
// configuration file. Flags take precedence over the configuration.
func openDatabase(ctx context.Context) (insdb.Database, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	server := cfg.Server.Address
	if flagServer != "" {
		server = flagServer
	}

	logger, err := newLogger()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	if server != "" {
		username := cfg.Server.Username
		if flagUsername != "" {
			username = flagUsername
		}
		password := cfg.Server.Password
		if password == "" {
			prompt := &survey.Password{
				Message: fmt.Sprintf("Password for %s@%s:", username, server),
			}
			if err := survey.AskOne(prompt, &password, survey.WithValidator(survey.Required)); err != nil {
				return nil, err
			}
		}
		client, err := remote.Connect(ctx, server, username, password, remote.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		return client, nil
	}

	db, err := openLocal(logger)
	if err != nil {
		return nil, err
	}
	return db, nil
}

// openLocal opens the local database named by the flags and the
// configuration file.
func openLocal(logger *zap.Logger) (*local.Database, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	storage := cfg.Storage
	if flagStorage != "" {
		storage = flagStorage
	}
	if storage == "" {
		return nil, fmt.Errorf("no local storage path: pass --storage or set it in insdb.yaml")
	}

	return local.Open(storage, local.WithLogger(logger))
}

func newLogger() (*zap.Logger, error) {
	if flagVerbose {
		return zap.NewDevelopment()
	}
	return zap.NewNop(), nil
}
