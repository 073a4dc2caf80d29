// Package wal journals verified payment-webhook events to disk before
// the booking write, so a crash between signature verification and the
// database insert cannot lose a paid booking. Entries are pruned once
// the booking persists and replayed at startup otherwise.
package wal

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mariofilbert/natours-api/pkg/logger"
)

// Entry is one verified checkout-completed event.
type Entry struct {
	EventID       string    `json:"event_id"`
	SessionID     string    `json:"session_id"`
	TourRef       string    `json:"tour_ref"`
	CustomerEmail string    `json:"customer_email"`
	AmountTotal   int64     `json:"amount_total"`
	ReceivedAt    time.Time `json:"received_at"`
}

// Journal is an fsync'd append-only event log.
type Journal struct {
	filePath string
	file     *os.File
	mu       sync.Mutex
}

func NewJournal(filePath string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}

	return &Journal{filePath: filePath, file: file}, nil
}

// Append records an event and syncs it to disk before returning.
func (j *Journal) Append(entry Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	if _, err := j.file.WriteString(string(data) + "\n"); err != nil {
		logger.Log.Error("Journal: failed to write entry",
			zap.String("event_id", entry.EventID),
			zap.Error(err),
		)
		return err
	}

	// Durability before the booking write happens
	if err := j.file.Sync(); err != nil {
		logger.Log.Error("Journal: failed to sync to disk",
			zap.String("event_id", entry.EventID),
			zap.Error(err),
		)
		return err
	}

	logger.Log.Debug("Journal: entry written",
		zap.String("event_id", entry.EventID),
		zap.String("session_id", entry.SessionID),
	)
	return nil
}

// Entries returns all journaled events, oldest first.
func (j *Journal) Entries() ([]Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	return j.readAllUnsafe()
}

// Prune removes events whose bookings have been persisted. The file is
// rewritten atomically via a temp file and reopened with append mode.
func (j *Journal) Prune(processedEventIDs []string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	all, err := j.readAllUnsafe()
	if err != nil {
		return err
	}

	processed := make(map[string]bool, len(processedEventIDs))
	for _, id := range processedEventIDs {
		processed[id] = true
	}

	var remaining []Entry
	for _, entry := range all {
		if !processed[entry.EventID] {
			remaining = append(remaining, entry)
		}
	}

	// The live file stays open until the replacement is durable, so a
	// failed rewrite leaves the journal appendable
	tempFile := j.filePath + ".tmp"
	f, err := os.Create(tempFile)
	if err != nil {
		return err
	}
	for _, entry := range remaining {
		data, err := json.Marshal(entry)
		if err != nil {
			f.Close()
			os.Remove(tempFile)
			return err
		}
		if _, err := f.WriteString(string(data) + "\n"); err != nil {
			f.Close()
			os.Remove(tempFile)
			return err
		}
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tempFile)
		return err
	}

	if err := j.file.Close(); err != nil {
		return err
	}
	if err := os.Rename(tempFile, j.filePath); err != nil {
		if reopened, openErr := os.OpenFile(j.filePath, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644); openErr == nil {
			j.file = reopened
		}
		return err
	}

	newFile, err := os.OpenFile(j.filePath, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	j.file = newFile

	logger.Log.Info("Journal: pruned processed events",
		zap.Int("before_count", len(all)),
		zap.Int("remaining_count", len(remaining)),
	)
	return nil
}

func (j *Journal) readAllUnsafe() ([]Entry, error) {
	file, err := os.Open(j.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, err
	}
	defer file.Close()

	var entries []Entry
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var entry Entry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}

	return entries, scanner.Err()
}

func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.file.Close()
}
