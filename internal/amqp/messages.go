package amqp

import (
	"encoding/json"
	"time"
)

// BatchIngestedMessage announces that a set of spend records replaced the
// store. Consumers fetch details from the service; this carries counts only.
type BatchIngestedMessage struct {
	BatchID     string    `json:"batch_id"`
	Source      string    `json:"source"`
	RecordCount int       `json:"record_count"`
	AWSCount    int       `json:"aws_count"`
	GCPCount    int       `json:"gcp_count"`
	IngestedAt  time.Time `json:"ingested_at"`
}

func NewBatchIngestedMessage(batchID, source string, recordCount, awsCount, gcpCount int) *BatchIngestedMessage {
	return &BatchIngestedMessage{
		BatchID:     batchID,
		Source:      source,
		RecordCount: recordCount,
		AWSCount:    awsCount,
		GCPCount:    gcpCount,
		IngestedAt:  time.Now(),
	}
}

func (m *BatchIngestedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func BatchIngestedMessageFromJSON(data []byte) (*BatchIngestedMessage, error) {
	var msg BatchIngestedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
