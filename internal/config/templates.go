package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "toml", "":
		return tomlTemplate, nil
	case "yaml", "yml":
		return yamlTemplate, nil
	default:
		return "", fmt.Errorf("unknown config format: %s", format)
	}
}

func WriteTemplate(path, format string, overwrite bool) error {
	template, err := Template(format)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const tomlTemplate = `name = "kitchen"
repository = "."
parallelism = 2
fail_fast = false
keep_sandbox = false

[provisioner]
log_level = "info"
root_path = "/tmp/kitchen"
json_attributes = true
run_list = ["recipe[base::default]"]

[provisioner.client_rb]
ssl_verify_mode = ":verify_none"

[api]
addr = ":9400"
cors_origins = ["http://localhost:3000"]

[[targets]]
name = "local-dev"
transport = "local"

[targets.provisioner]
root_path = "/tmp/kitchen-local"
sudo = false

[[targets]]
name = "web-1"
transport = "ssh"
host = "10.0.0.10"
user = "kitchen"
key_path = "~/.ssh/id_ed25519"
timeout = "10s"
`

const yamlTemplate = `name: kitchen
repository: .
parallelism: 2
fail_fast: false
keep_sandbox: false
provisioner:
  log_level: info
  root_path: /tmp/kitchen
  json_attributes: true
  run_list:
    - recipe[base::default]
  client_rb:
    ssl_verify_mode: ":verify_none"
api:
  addr: ":9400"
  cors_origins:
    - http://localhost:3000
targets:
  - name: local-dev
    transport: local
    provisioner:
      root_path: /tmp/kitchen-local
      sudo: false
  - name: web-1
    transport: ssh
    host: 10.0.0.10
    user: kitchen
    key_path: ~/.ssh/id_ed25519
    timeout: 10s
`
