// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The answer pipeline is split across small services:
//
//	FetchAll      bounded concurrent fetch with a join barrier
//	Indexer       embed chunks and append them in one serialised batch
//	Retriever     embed the query and rank stored records
//	Generator     stream the LLM answer, degrading to an apology
//	Orchestrator  per-run state machine tying the stages together
//
// Services depend only on ports, never on concrete adapters.
package services
