package config

// -----------------------------------------------------------------------------
// Embedded configuration
//
// Key: board name (BADGE_BOARD or the -board flag)
// Val: raw JSON merged over Defaults()
// -----------------------------------------------------------------------------

const cfgBadge = `{
  "pins": {
    "alert": {"pin": 25, "pull": "up", "active_low": true},
    "reset": {"pin": 0, "pull": "up", "active_low": true},
    "led":   {"pin": 18}
  }
}`

// Host builds serve provisioning on unprivileged ports.
const cfgHost = `{
  "provision": {
    "ap_name": "EMERGENCY ALERT SETUP",
    "ap_addr": "127.0.0.1",
    "http_addr": "127.0.0.1:8080",
    "dns_addr": "127.0.0.1:5353",
    "restart_delay_ms": 2000
  },
  "nv_path": "badge-host.nv",
  "log": {"level": "debug"}
}`

var embeddedConfigs = map[string][]byte{
	"badge": []byte(cfgBadge),
	"host":  []byte(cfgHost),
}
