package config

import (
	"time"

	"github.com/JosineyJr/switch_router/internal/structs"
)

func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: "9999"},
		Log:    LogConfig{Level: "info"},
		Switches: []structs.Switch{
			{EndpointURL: "https://jsonplaceholder.typicode.com", HealthCheckPath: "/posts"},
			{EndpointURL: "https://fakestoreapi.com", HealthCheckPath: "/products"},
			{EndpointURL: "https://dummyjson.com", HealthCheckPath: "/users"},
		},
		Health: HealthConfig{
			Interval: 30 * time.Second,
			Timeout:  5 * time.Second,
		},
		Dispatch: DispatchConfig{
			Mode:    DispatchModeSimulate,
			Path:    "/process-transaction",
			Timeout: 10 * time.Second,
		},
		Store: StoreConfig{
			Driver:    StoreDriverMemory,
			RedisAddr: "localhost:6379",
			KeyPrefix: "switch_router:",
		},
		Metrics: MetricsConfig{
			InfluxOrg:    "switch_router",
			InfluxBucket: "switch_router",
		},
	}
}
