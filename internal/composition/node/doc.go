// Package node assembles one program host: ledger backend, replay registry,
// program service, executor and faucet, exposed as contracts.NodeService.
//
// Responsibilities:
// - Pick the ledger backend and replay registry from config.
// - Translate wire transactions into runtime transactions and render results.
// - Tag failures with the layer that produced them.
//
// Non-responsibilities:
// - Program rules (internal/domains/program).
// - Transport concerns such as auth and rate limits (internal/adapters/rpc).
package node
