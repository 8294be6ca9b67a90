package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Ratio1/webhdfs_sdk_go/pkg/webhdfs"
)

const (
	envProfile = "WEBHDFS_PROFILE"
	envHost    = "WEBHDFS_HOST"
	envPort    = "WEBHDFS_PORT"
	envUser    = "WEBHDFS_USER"

	defaultProfileName = ".webhdfs.yaml"
)

// profile is the on-disk CLI configuration. Environment variables override
// it and command-line flags override both.
type profile struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	User           string        `yaml:"user"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	RateLimit      float64       `yaml:"rate_limit"`
	RateBurst      int           `yaml:"rate_burst"`
}

// loadProfile reads path. An empty path falls back to $WEBHDFS_PROFILE and
// then ~/.webhdfs.yaml; a missing default file is not an error.
func loadProfile(path string) (profile, error) {
	explicit := path != ""
	if !explicit {
		path = strings.TrimSpace(os.Getenv(envProfile))
		explicit = path != ""
	}
	if !explicit {
		home, err := os.UserHomeDir()
		if err != nil {
			return profile{}, nil
		}
		path = filepath.Join(home, defaultProfileName)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return profile{}, nil
		}
		return profile{}, fmt.Errorf("read profile %s: %w", path, err)
	}
	var p profile
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return profile{}, fmt.Errorf("parse profile %s: %w", path, err)
	}
	return p, nil
}

// applyEnv overlays WEBHDFS_HOST, WEBHDFS_PORT and WEBHDFS_USER.
func (p *profile) applyEnv() error {
	if host := strings.TrimSpace(os.Getenv(envHost)); host != "" {
		p.Host = host
	}
	if raw := strings.TrimSpace(os.Getenv(envPort)); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("invalid %s value %q", envPort, raw)
		}
		p.Port = port
	}
	if user := strings.TrimSpace(os.Getenv(envUser)); user != "" {
		p.User = user
	}
	return nil
}

func (p profile) endpoint() webhdfs.Endpoint {
	ep := webhdfs.DefaultEndpoint
	if p.Host != "" {
		ep.Host = p.Host
	}
	if p.Port != 0 {
		ep.Port = p.Port
	}
	return ep
}

func (p profile) options() []webhdfs.Option {
	var opts []webhdfs.Option
	if p.User != "" {
		opts = append(opts, webhdfs.WithUser(p.User))
	}
	if p.ConnectTimeout > 0 {
		opts = append(opts, webhdfs.WithConnectTimeout(p.ConnectTimeout))
	}
	if p.RateLimit > 0 {
		burst := p.RateBurst
		if burst <= 0 {
			burst = 1
		}
		opts = append(opts, webhdfs.WithRateLimit(p.RateLimit, burst))
	}
	return opts
}
