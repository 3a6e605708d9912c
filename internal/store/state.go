package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"InsiderSentinel/internal/model"
)

// LoadTrades reads the persisted trade set. A missing or empty file is an
// empty set; a file that is not a JSON array of trades is an error.
func LoadTrades(filePath string) ([]model.Trade, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var trades []model.Trade
	if err := json.Unmarshal(data, &trades); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filePath, err)
	}
	return trades, nil
}

// SaveTrades replaces the persisted set. The new content is written to a
// temporary file in the same directory and renamed over the old one, so
// readers see either the old set or the new one.
func SaveTrades(filePath string, trades []model.Trade) error {
	if trades == nil {
		trades = []model.Trade{}
	}
	data, err := json.MarshalIndent(trades, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(filePath)
	tmp, err := os.CreateTemp(dir, filepath.Base(filePath)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return err
	}
	return os.Rename(tmpName, filePath)
}
