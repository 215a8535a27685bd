// Package services implements the driving port interfaces: query
// retrieval, the embedding job, and index lifecycle management. Each
// service orchestrates driven ports (store, encoder factory, index
// admin) and owns the plan/apply semantics the adapters expose.
package services
