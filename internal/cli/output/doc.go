// Package output renders authstore-cli results as text, JSON or YAML.
//
// Text output is meant for shells: item values are printed raw so that
// `authstore-cli get KEY` can feed another program directly.
package output
