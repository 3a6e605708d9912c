package model

// UploadSummary is the run summary sent alongside an upload.
type UploadSummary struct {
	MegaTradeCount      int     `json:"mega_trade_count"`
	MegaTradeTotalValue float64 `json:"mega_trade_total_value"`
	MinTradeValue       float64 `json:"min_trade_value"`
}

// UploadPayload is the body the pipeline posts to the trade store.
type UploadPayload struct {
	RunTime string        `json:"run_time"` // ISO-8601
	Trades  []Trade       `json:"trades"`
	Summary UploadSummary `json:"summary"`
}

// MergeResult describes the outcome of a store merge.
type MergeResult struct {
	Total             int `json:"total"`
	Added             int `json:"added"`
	DuplicatesRemoved int `json:"duplicates_removed"`
}
