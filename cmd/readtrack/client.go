package main

import (
	"log/slog"

	"github.com/listenupapp/readtrack/internal/gateway"
	"github.com/listenupapp/readtrack/internal/reader"
)

// loadClientConfig reads the config file and applies flag overrides.
func loadClientConfig(opts *globalOptions) (*reader.ClientConfig, string, error) {
	path := opts.configPath
	if path == "" {
		var err error
		path, err = reader.DefaultConfigPath()
		if err != nil {
			return nil, "", err
		}
	}

	cfg, err := reader.LoadClientConfig(path)
	if err != nil {
		return nil, "", err
	}
	if opts.serverURL != "" {
		cfg.ServerURL = opts.serverURL
	}
	if opts.token != "" {
		cfg.Token = opts.token
	}
	return cfg, path, nil
}

func newGatewayClient(cfg *reader.ClientConfig) (*gateway.Client, error) {
	return gateway.New(gateway.Config{
		BaseURL:  cfg.ServerURL,
		Token:    cfg.Token,
		DeviceID: cfg.DeviceID,
	}, slog.New(slog.DiscardHandler))
}
