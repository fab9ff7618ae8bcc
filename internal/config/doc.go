// Package config manages user settings stored at ~/.marketvet/config.yaml,
// layered under command-line flags and over built-in defaults via Viper.
package config
