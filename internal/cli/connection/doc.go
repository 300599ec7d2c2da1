// Package connection is the authstore-cli client for the agent socket.
//
// Requests are plain HTTP carried over the agent's Unix domain socket;
// the host part of every URL is ignored.
package connection
