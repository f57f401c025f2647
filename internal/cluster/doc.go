// Package cluster implements the replicated stream-cluster coordinator:
// a deterministic Raft-backed state machine that owns stream topology,
// drives leader election and replica restart, and reconciles its own
// fleet membership against the Raft voter set.
//
//   - Command/Effect: the closed set of inputs the FSM accepts and the
//     side-effect requests it emits (command.go)
//   - FSM: the replicated state machine itself (fsm.go, apply.go)
//   - auxExecutor: the leader-local, non-replicated phase runner (aux.go,
//     phases.go)
//   - membershipReconciler: ties the gossip-discovered fleet to the Raft
//     voter configuration (membership.go)
//   - Client: the operation surface for administrators and the HTTP/CLI
//     layers (client_api.go)
package cluster
