package models

import (
	"encoding/json"
	"time"
)

// RunKind distinguishes the two backtest flavors.
type RunKind string

const (
	RunPortfolio RunKind = "portfolio"
	RunOptions   RunKind = "options"
)

// BacktestRun is the persisted input+output payload of one backtest,
// keyed by an opaque run ID and an owning user ID. The core treats the
// payloads as opaque JSON; only the store reads them back.
type BacktestRun struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Kind      RunKind         `json:"kind"`
	CreatedAt time.Time       `json:"created_at"`
	Request   json.RawMessage `json:"request"`
	Result    json.RawMessage `json:"result"`
}

// RunSummary is a listing row for saved runs.
type RunSummary struct {
	ID        string    `json:"id"`
	Kind      RunKind   `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}
