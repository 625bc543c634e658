package messaging

import (
	"fmt"
)

// HealthStatus represents the health state of a messaging connection.
type HealthStatus struct {
	// Connected indicates if the client is connected.
	Connected bool `json:"connected" yaml:"connected"`

	// Latency is the round-trip time for a health ping, in milliseconds.
	Latency float64 `json:"latency_ms" yaml:"latency_ms"`

	// Error contains any error message if unhealthy.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Healthy reports whether the connection is usable.
func (s HealthStatus) Healthy() bool {
	return s.Connected && s.Error == ""
}

// CheckConnHealth checks that conn is connected and answers a ping.
func CheckConnHealth(conn Conn) HealthStatus {
	status := HealthStatus{}

	if conn == nil {
		status.Error = "client is nil"
		return status
	}

	status.Connected = conn.IsConnected()
	if !status.Connected {
		status.Error = "not connected to message broker"
		return status
	}

	rtt, err := conn.RTT()
	if err != nil {
		status.Error = fmt.Sprintf("health check failed: %v", err)
		return status
	}
	status.Latency = float64(rtt.Microseconds()) / 1000

	return status
}
