package main

import "sync"

type Config struct {
	// Estimate knobs handed to the ownership source.
	EstimateTrials    int     `json:"estimate_trials"`
	EstimateTolerance float64 `json:"estimate_tolerance"`

	// Remote scorer. PreferRemote alone is not enough: the endpoint must
	// be registered and the board must fit within the max bounds, else
	// the local heuristic runs.
	PreferRemote    bool   `json:"prefer_remote"`
	RemoteURL       string `json:"remote_url"`
	RemoteAuthToken string `json:"remote_auth_token"`
	RemoteMaxWidth  int    `json:"remote_max_width"`
	RemoteMaxHeight int    `json:"remote_max_height"`

	// Review service behaviour.
	ListenAddr string `json:"listen_addr"`
	LogLevel   string `json:"log_level"`
}

type ConfigStore struct {
	mu     sync.RWMutex
	config Config
}

func DefaultConfig() Config {
	return Config{
		EstimateTrials:    1000,
		EstimateTolerance: 0.25,

		PreferRemote:    false,
		RemoteMaxWidth:  19,
		RemoteMaxHeight: 19,

		ListenAddr: ":8080",
		LogLevel:   "info",
	}
}

var configStore = &ConfigStore{config: DefaultConfig()}

func GetConfig() Config {
	return configStore.Get()
}

func (c *ConfigStore) Get() Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config
}

func (c *ConfigStore) Update(newConfig Config) {
	c.mu.Lock()
	c.config = newConfig
	c.mu.Unlock()
}

func estimatorOptionsFromConfig(config Config, onEstimate func(), onRemoval RemovalChangeFunc) EstimatorOptions {
	options := EstimatorOptions{
		Trials:            config.EstimateTrials,
		Tolerance:         config.EstimateTolerance,
		PreferRemote:      config.PreferRemote,
		RemoteMaxWidth:    config.RemoteMaxWidth,
		RemoteMaxHeight:   config.RemoteMaxHeight,
		OnEstimateUpdated: onEstimate,
		OnRemovalChanged:  onRemoval,
	}
	if config.RemoteURL != "" {
		options.Remote = NewRemoteEstimator(config.RemoteURL, config.RemoteAuthToken)
	}
	return options
}
