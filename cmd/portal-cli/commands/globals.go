package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"titechportal/internal/components/telemetry"
	"titechportal/pkg/configutil"
	"titechportal/pkg/portal"
)

type Config struct {
	Username string `json:"username"`
	Password string `json:"password"`
	// Matrix is keyed by cell, ex. "D2".
	Matrix map[string]string `json:"matrix"`
	// Endpoint is "production" (the default), "mock" or an origin.
	Endpoint         string  `json:"endpoint"`
	CloudflareBypass bool    `json:"cloudflare_bypass"`
	RateLimit        float64 `json:"rate_limit"`
}

type globalsKeyType int

const globalsKey globalsKeyType = 0

// globals is what every command needs, resolved once from the flags and config.
type globals struct {
	config    Config
	endpoints portal.Endpoints
	matrix    map[portal.Matrix]string
	tel       telemetry.API
	debug     bool
}

func withGlobals(ctx context.Context, g *globals) context.Context {
	return context.WithValue(ctx, globalsKey, g)
}

func getGlobals(ctx context.Context) *globals {
	return ctx.Value(globalsKey).(*globals)
}

func resolveEndpoints(endpoint string) (portal.Endpoints, error) {
	switch endpoint {
	case "", "production":
		return portal.ProductionEndpoints, nil
	case "mock":
		return portal.MockEndpoints, nil
	default:
		return portal.EndpointsFromOrigin(endpoint)
	}
}

// loadGlobals reads the config, a missing config is not an error since
// commands like `mock` do not need an account.
func loadGlobals(configPath, endpointOverride string, debug bool) (*globals, error) {
	config, err := configutil.ReadConfig[Config](configPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read config: %w", err)
	}

	endpoint := config.Endpoint
	if endpointOverride != "" {
		endpoint = endpointOverride
	}
	endpoints, err := resolveEndpoints(endpoint)
	if err != nil {
		return nil, fmt.Errorf("resolve endpoint: %w", err)
	}

	matrix, err := portal.ParseMatrixSecrets(config.Matrix)
	if err != nil {
		return nil, fmt.Errorf("read matrix: %w", err)
	}

	return &globals{
		config:    config,
		endpoints: endpoints,
		matrix:    matrix,
		tel:       telemetry.SlogAPI{},
		debug:     debug,
	}, nil
}

func (g *globals) requireCredentials() error {
	if g.config.Username == "" || g.config.Password == "" {
		return errors.New("username and password must be set in the config")
	}
	return nil
}

func (g *globals) account() portal.Account {
	return portal.Account{
		Username: g.config.Username,
		Password: g.config.Password,
		Matrix:   g.matrix,
	}
}

func (g *globals) newClient() (*portal.Client, error) {
	return portal.NewClient(portal.Options{
		Endpoints:        g.endpoints,
		CloudflareBypass: g.config.CloudflareBypass,
		RateLimit:        g.config.RateLimit,
		DumpMessages:     g.debug,
	}, g.tel)
}
