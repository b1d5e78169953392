// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a validated Config:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 3318)
  - DatabaseURL: SQLite file URL or PostgreSQL connection string (required)
  - DatabaseType: sqlite (default) or postgres
  - AdminKeySalt: Secret for admin key HMAC (required)
  - SlugSalt: Secret for share slug generation (required)
  - BaseURL: Prefix for share links
  - SubmitRate, SubmitBurst: Per-client limit on mutating requests
  - ShutdownGrace: Time allowed for in-flight requests on shutdown

# CLI Flags

	-p             Server port
	-d             Database URL
	-t             Database type
	--base-url     Share link base URL
	--submit-rate  Requests per second per client
	--submit-burst Burst size per client
	--admin-salt   Admin key salt
	--slug-salt    Share slug salt
	-c             YAML config file
	-e             Env file (default .env)

# Sources

Values are resolved in this order, later sources winning:

 1. Built-in defaults
 2. YAML file (-c or CONFIG_FILE)
 3. Environment, after loading the env file with godotenv
 4. CLI flags that were explicitly given

Environment variables:

	PORT           → -p
	DATABASE_URL   → -d
	DATABASE_TYPE  → -t
	BASE_URL       → --base-url
	SUBMIT_RATE    → --submit-rate
	SUBMIT_BURST   → --submit-burst
	ADMIN_KEY_SALT → --admin-salt
	SLUG_SALT      → --slug-salt

# Validation

The final Config is checked with validator struct tags. ParseFlags returns
an error if DATABASE_URL, ADMIN_KEY_SALT or SLUG_SALT is missing, or the
database type is not sqlite or postgres.
*/
package cliparse
