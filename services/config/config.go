package config

import (
	"encoding/json"
	"errors"
	"os"
	"strconv"
	"time"

	"alertbadge-go/bus"
	"alertbadge-go/services/hal"
)

const configPrefix = "config"

// EmbeddedConfigLookup allows overriding how board configs are resolved.
var EmbeddedConfigLookup = func(board string) ([]byte, bool) {
	b, ok := embeddedConfigs[board]
	return b, ok
}

type Pins struct {
	Alert hal.GPIOParams `json:"alert"`
	Reset hal.GPIOParams `json:"reset"`
	LED   hal.GPIOParams `json:"led"`
}

// Timing values are milliseconds.
type Timing struct {
	DebounceMs    int `json:"debounce_ms"`
	ResetHoldMs   int `json:"reset_hold_ms"`
	BootSettleMs  int `json:"boot_settle_ms"`
	FastBlinkMs   int `json:"fast_blink_ms"`
	SlowBlinkMs   int `json:"slow_blink_ms"`
	ServerCheckMs int `json:"server_check_ms"`
	TickMs        int `json:"tick_ms"`
}

type Discovery struct {
	Port     int    `json:"port"`
	Token    string `json:"token"`
	Attempts int    `json:"attempts"`
	ListenMs int    `json:"listen_ms"`
	PollMs   int    `json:"poll_ms"`
}

type Alert struct {
	Port      int    `json:"port"`
	Path      string `json:"path"`
	TimeoutMs int    `json:"timeout_ms"`
}

type Provision struct {
	APName         string `json:"ap_name"`
	APAddr         string `json:"ap_addr"`
	HTTPAddr       string `json:"http_addr"`
	DNSAddr        string `json:"dns_addr"`
	RestartDelayMs int    `json:"restart_delay_ms"`
}

type Log struct {
	Level string `json:"level"`
	Dir   string `json:"dir"`
}

// Config is the resolved board configuration.
type Config struct {
	Board     string    `json:"-"`
	Pins      Pins      `json:"pins"`
	Timing    Timing    `json:"timing"`
	Discovery Discovery `json:"discovery"`
	Alert     Alert     `json:"alert"`
	Provision Provision `json:"provision"`
	NVPath    string    `json:"nv_path"`
	Log       Log       `json:"log"`
}

// Defaults mirror the reference badge hardware.
func Defaults() Config {
	return Config{
		Board: "badge",
		Pins: Pins{
			Alert: hal.GPIOParams{Pin: 25, Pull: "up", ActiveLow: true},
			Reset: hal.GPIOParams{Pin: 0, Pull: "up", ActiveLow: true},
			LED:   hal.GPIOParams{Pin: 18},
		},
		Timing: Timing{
			DebounceMs:    500,
			ResetHoldMs:   3000,
			BootSettleMs:  100,
			FastBlinkMs:   300,
			SlowBlinkMs:   1000,
			ServerCheckMs: 10000,
			TickMs:        10,
		},
		Discovery: Discovery{Port: 12345, Token: "WHERE_IS_SERVER", Attempts: 3, ListenMs: 1000, PollMs: 50},
		Alert:     Alert{Port: 5000, Path: "/alert", TimeoutMs: 5000},
		Provision: Provision{
			APName:         "EMERGENCY ALERT SETUP",
			APAddr:         "192.168.4.1",
			HTTPAddr:       ":80",
			DNSAddr:        ":53",
			RestartDelayMs: 2000,
		},
		NVPath: "badge.nv",
		Log:    Log{Level: "info"},
	}
}

// Load resolves the board's embedded config over Defaults, then applies
// BADGE_* environment overrides.
func Load(board string) (Config, error) {
	c := Defaults()
	if board == "" {
		board = os.Getenv("BADGE_BOARD")
	}
	if board != "" {
		raw, ok := EmbeddedConfigLookup(board)
		if !ok || len(raw) == 0 {
			return c, errors.New("no embedded config for board: " + board)
		}
		if err := json.Unmarshal(raw, &c); err != nil {
			return c, err
		}
		c.Board = board
	}
	applyEnv(&c)
	return c, nil
}

func applyEnv(c *Config) {
	if v := os.Getenv("BADGE_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("BADGE_LOG_DIR"); v != "" {
		c.Log.Dir = v
	}
	if v := os.Getenv("BADGE_NV_PATH"); v != "" {
		c.NVPath = v
	}
	if v := os.Getenv("BADGE_HTTP_ADDR"); v != "" {
		c.Provision.HTTPAddr = v
	}
	if v := os.Getenv("BADGE_DNS_ADDR"); v != "" {
		c.Provision.DNSAddr = v
	}
	if n, ok := envPort("BADGE_DISCOVERY_PORT"); ok {
		c.Discovery.Port = n
	}
	if n, ok := envPort("BADGE_ALERT_PORT"); ok {
		c.Alert.Port = n
	}
}

func envPort(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 || n > 65535 {
		return 0, false
	}
	return n, true
}

func Ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

// Publish announces each config section as a retained message under config/.
func Publish(conn *bus.Connection, c Config) {
	sections := map[string]any{
		"pins":      c.Pins,
		"timing":    c.Timing,
		"discovery": c.Discovery,
		"alert":     c.Alert,
		"provision": c.Provision,
	}
	for k, v := range sections {
		conn.Publish(conn.NewMessage(bus.T(configPrefix, k), v, true))
	}
}
