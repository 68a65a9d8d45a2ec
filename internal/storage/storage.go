// /internal/storage/storage.go
package storage

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/keshon/chatcmd/datastore"
	"github.com/rs/zerolog"
)

const commandHistoryLimit int = 20

const playerKeyPrefix = "player/"

// Storage keeps per-player records in the datastore.
type Storage struct {
	mu sync.Mutex
	ds *datastore.DataStore
}

type CommandHistoryRecord struct {
	Command  string        `json:"command"`
	Param    string        `json:"param"`
	Outcome  string        `json:"outcome"`
	Duration time.Duration `json:"duration"`
	Datetime time.Time     `json:"datetime"`
}

type Record struct {
	Grants              []string               `json:"grants"`
	CommandsHistoryList []CommandHistoryRecord `json:"cmd_history"`
}

func New(filePath string, logger zerolog.Logger) (*Storage, error) {
	cfg := datastore.DefaultConfig(filePath)
	cfg.Logger = logger
	ds, err := datastore.NewWithConfig(cfg)
	if err != nil {
		return nil, err
	}
	return &Storage{ds: ds}, nil
}

func (s *Storage) Close() error {
	return s.ds.Close()
}

// Players returns the names of every player with a record.
func (s *Storage) Players() []string {
	keys := s.ds.Keys(playerKeyPrefix)
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = strings.TrimPrefix(k, playerKeyPrefix)
	}
	return out
}

func playerKey(player string) string {
	return playerKeyPrefix + strings.ToLower(player)
}

// getOrCreatePlayerRecord must be called with s.mu held.
func (s *Storage) getOrCreatePlayerRecord(player string) (*Record, error) {
	var record Record
	ok, err := s.ds.Get(playerKey(player), &record)
	if err != nil {
		return nil, fmt.Errorf("error reading record for %s: %w", player, err)
	}
	if !ok {
		return &Record{Grants: []string{}, CommandsHistoryList: []CommandHistoryRecord{}}, nil
	}
	if len(record.CommandsHistoryList) > commandHistoryLimit {
		record.CommandsHistoryList = record.CommandsHistoryList[len(record.CommandsHistoryList)-commandHistoryLimit:]
	}
	return &record, nil
}

func (s *Storage) update(player string, fn func(*Record) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreatePlayerRecord(player)
	if err != nil {
		return err
	}
	if !fn(record) {
		return nil
	}
	return s.ds.Put(playerKey(player), record)
}

// AddGrant gives player a permission node. It reports false if the node was
// already granted.
func (s *Storage) AddGrant(player, node string) (bool, error) {
	added := false
	err := s.update(player, func(r *Record) bool {
		for _, g := range r.Grants {
			if g == node {
				return false
			}
		}
		r.Grants = append(r.Grants, node)
		sort.Strings(r.Grants)
		added = true
		return true
	})
	return added, err
}

// RemoveGrant takes a node away from player. It reports false if the node was
// not granted.
func (s *Storage) RemoveGrant(player, node string) (bool, error) {
	removed := false
	err := s.update(player, func(r *Record) bool {
		updated := make([]string, 0, len(r.Grants))
		for _, g := range r.Grants {
			if g == node {
				removed = true
				continue
			}
			updated = append(updated, g)
		}
		r.Grants = updated
		return removed
	})
	return removed, err
}

// Grants returns the nodes granted to player at runtime.
func (s *Storage) Grants(player string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreatePlayerRecord(player)
	if err != nil {
		return nil, err
	}
	return record.Grants, nil
}

// AppendCommandToHistory appends a command history record for a player,
// keeping the newest entries only.
func (s *Storage) AppendCommandToHistory(player string, command CommandHistoryRecord) error {
	return s.update(player, func(r *Record) bool {
		r.CommandsHistoryList = append(r.CommandsHistoryList, command)
		if len(r.CommandsHistoryList) > commandHistoryLimit {
			r.CommandsHistoryList = r.CommandsHistoryList[len(r.CommandsHistoryList)-commandHistoryLimit:]
		}
		return true
	})
}

func (s *Storage) FetchCommandHistory(player string) ([]CommandHistoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreatePlayerRecord(player)
	if err != nil {
		return nil, err
	}
	return record.CommandsHistoryList, nil
}
