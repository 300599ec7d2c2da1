// Package main provides the entry point for authstore-cli.
//
// Usage:
//
//	authstore-cli get KEY
//	authstore-cli set KEY VALUE
//	echo "$SESSION" | authstore-cli set KEY -
//	authstore-cli rm KEY
//	authstore-cli -o json health
package main
