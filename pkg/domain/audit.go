package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"time"
)

// Actors recorded on audit events.
const (
	ActorAI     = "ai"
	ActorHuman  = "human"
	ActorSystem = "system"
)

// Event is a single auditable step of a plan generation run.
type Event struct {
	ID        string                 `json:"id"`
	RunID     string                 `json:"run_id,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Action    string                 `json:"action"`
	Actor     string                 `json:"actor"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	PrevHash  string                 `json:"prev_hash,omitempty"`
	Hash      string                 `json:"hash,omitempty"`
}

// CalculateHash returns a SHA256 over the event content chained to PrevHash.
func (e *Event) CalculateHash() string {
	h := sha256.New()
	for _, part := range []string{
		e.PrevHash,
		e.ID,
		e.RunID,
		e.Timestamp.UTC().Format(time.RFC3339Nano),
		e.Action,
		e.Actor,
		canonicalJSON(e.Metadata),
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// canonicalJSON encodes metadata with sorted keys.
func canonicalJSON(m map[string]interface{}) string {
	if len(m) == 0 {
		return ""
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := []byte{'{'}
	for i, k := range keys {
		if i > 0 {
			out = append(out, ',')
		}
		keyJSON, _ := json.Marshal(k)
		valJSON, _ := json.Marshal(m[k])
		out = append(out, keyJSON...)
		out = append(out, ':')
		out = append(out, valJSON...)
	}
	return string(append(out, '}'))
}
