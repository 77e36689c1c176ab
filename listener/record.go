package listener

import "encoding/json"

// Record is one received payload. The listener extracts only the batch
// fields it needs for completion bookkeeping; everything else is carried
// opaquely in Body for downstream consumers.
type Record struct {
	// BatchID is the opaque identifier shared by all records of one
	// logical group.
	BatchID string

	// BatchSize is the total number of records the batch declares. Only
	// the first record of a batch is consulted; the value is assumed, not
	// verified, to be consistent across the batch.
	BatchSize int

	// Body is the raw JSON payload as received, unmodified.
	Body json.RawMessage
}

// batchEnvelope is the minimal shape the listener needs out of a payload.
type batchEnvelope struct {
	Batch struct {
		ID   string `json:"id"`
		Size int    `json:"size"`
	} `json:"batch"`
}

// parseRecord validates body as JSON and extracts the batch fields.
func parseRecord(body []byte) (Record, error) {
	var env batchEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Record{}, &PayloadError{Err: err}
	}
	return Record{
		BatchID:   env.Batch.ID,
		BatchSize: env.Batch.Size,
		Body:      json.RawMessage(body),
	}, nil
}
