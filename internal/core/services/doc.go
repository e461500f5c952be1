// Package services contains the core application logic: candidate
// ingestion, asynchronous embedding, the scrape orchestrator and the
// background scheduler. Services depend only on the port interfaces;
// adapters are injected at startup.
package services
