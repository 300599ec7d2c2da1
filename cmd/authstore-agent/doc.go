// Package main provides the entry point for authstore-agent.
//
// authstore-agent owns the credential stores of one user and serves the
// item contract on a Unix domain socket so that local auth clients can
// share a single, coordinated storage pipeline.
//
// Usage:
//
//	authstore-agent --config /etc/authstore/agent.yaml
//	AUTHSTORE_SECURE_STORE__PASSPHRASE=... authstore-agent --socket /run/user/1000/authstore.sock
package main
