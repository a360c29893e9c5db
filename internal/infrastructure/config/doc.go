// Package config loads and validates the knxlink gateway configuration.
//
// Configuration is read from a YAML file, merged over hardcoded
// defaults, and finally overridden by KNXLINK_* environment variables
// so that secrets (MQTT password, InfluxDB token) never need to live in
// the file.
//
// Example:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(cfg.Transport.Device)
package config
