// Package localserver exposes the credential storage contract to local
// processes over HTTP on a Unix domain socket.
//
// Routes:
//
//   - GET    /v1/items/{key}  200 {"value": "..."} or 404
//   - PUT    /v1/items/{key}  body {"value": "..."}, 204
//   - DELETE /v1/items/{key}  204
//   - GET    /healthz         selected backend and disabled keys
//   - GET    /metrics         Prometheus exposition (when enabled)
//
// Security:
//
//   - Only accessible via the Unix domain socket
//   - The socket is created with mode 0600, so file system permissions
//     restrict access to the agent's user
package localserver
