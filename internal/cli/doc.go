// Package cli defines the cobra command tree: validate, config, and
// version. Commands are thin; the validation work lives in internal/engine.
package cli
