// Package config loads the host configuration tree for servicekit
// applications.
//
// It uses Viper to read a YAML (or JSON) config file, an optional
// consul.json block mounted under the "consul" key, a .env file and
// environment variables. Nested keys are addressed with dots:
//
//	tree, err := config.LoadTree("orders")
//	name := tree.GetString("consul.service.name")
//
// Environment variables override file values with dots replaced by
// underscores (CONSUL_SERVICE_NAME overrides consul.service.name).
package config
