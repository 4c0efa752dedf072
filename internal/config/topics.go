package config

const (
	// TopicIngestEmbed is the NSQ topic for per-chunk embedding tasks.
	TopicIngestEmbed = "ingest.embed"

	// TopicIngestResult is the NSQ topic for ingestion outcomes (success/failure).
	TopicIngestResult = "ingest.result"
)
