package config

import (
	"fmt"
	"math"
	"net"
	"net/url"
	"strconv"
)

const (
	DefaultHost = "127.0.0.1"
	DefaultPort = 3751

	// socketPath is where the Cubensis RPC server accepts websocket upgrades.
	socketPath = "/socket"
)

// Configuration is the connection target, read once at activation.
type Configuration struct {
	Host string
	Port int
}

// Load reads host and port from namespace in store, applying defaults for
// unset keys. Wrongly typed or out-of-range values are an error.
func Load(store Store, namespace string) (Configuration, error) {
	cfg := Configuration{Host: DefaultHost, Port: DefaultPort}
	if store == nil {
		return cfg, nil
	}

	if v, ok := store.Lookup(namespace, "host"); ok && v != nil {
		host, ok := v.(string)
		if !ok {
			return Configuration{}, fmt.Errorf("%s.host: expected string, got %T", namespace, v)
		}
		cfg.Host = host
	}

	if v, ok := store.Lookup(namespace, "port"); ok && v != nil {
		port, err := toPort(v)
		if err != nil {
			return Configuration{}, fmt.Errorf("%s.port: %w", namespace, err)
		}
		cfg.Port = port
	}

	if err := cfg.Validate(); err != nil {
		return Configuration{}, err
	}
	return cfg, nil
}

func toPort(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case uint64:
		if n > math.MaxInt32 {
			return 0, fmt.Errorf("%d out of range", n)
		}
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("expected integer, got %v", n)
		}
		return int(n), nil
	case string:
		// Flags and environment overrides arrive as strings.
		p, err := strconv.Atoi(n)
		if err != nil {
			return 0, fmt.Errorf("expected integer, got %q", n)
		}
		return p, nil
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
}

// Validate checks that the host is set and the port is a usable TCP port.
func (c Configuration) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("host must not be empty")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range 1-65535", c.Port)
	}
	return nil
}

// Address returns host:port.
func (c Configuration) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// SocketURL returns the websocket endpoint of the Cubensis RPC server.
func (c Configuration) SocketURL() string {
	u := url.URL{Scheme: "ws", Host: c.Address(), Path: socketPath}
	return u.String()
}
