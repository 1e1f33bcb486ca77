package structs

import "time"

type Switch struct {
	EndpointURL     string `json:"endpointUrl" mapstructure:"url" yaml:"url"`
	HealthCheckPath string `json:"healthCheckPath" mapstructure:"health_check_path" yaml:"health_check_path"`
}

func (s Switch) HealthCheckURL() string {
	return s.EndpointURL + s.HealthCheckPath
}

type SwitchStatus struct {
	Switch
	Healthy       bool      `json:"healthy"`
	LastCheckedAt time.Time `json:"lastCheckedAt"`
	LastError     string    `json:"lastError,omitempty"`
}
