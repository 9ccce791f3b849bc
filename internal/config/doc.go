// Package config loads evbus settings.
//
// Settings come from three layers, later layers overriding earlier ones:
//
//	┌─────────────────────────────┐
//	│  3. Environment (EVBUS_*)   │  ← Highest priority
//	├─────────────────────────────┤
//	│  2. TOML file               │
//	├─────────────────────────────┤
//	│  1. Built-in defaults       │  ← Lowest priority
//	└─────────────────────────────┘
//
// A complete file:
//
//	[bus]
//	workers = 8
//	queue_size = 256
//	retry_base_delay = "100ms"
//	max_retry_delay = "30s"
//
//	[log]
//	level = "info"
//	format = "text"
//
//	[[hooks]]
//	script = "hooks/audit.lua"
//	pattern = "orders.#"
//	priority = -50
//	max_retries = 2
//
// Environment variables use the section and key names in upper case, for
// example EVBUS_BUS_WORKERS=16 or EVBUS_LOG_LEVEL=debug.
package config
