// Package storage keeps aggregate self-play results and user preferences in
// a local BadgerDB. It never stores individual games.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"github.com/hailam/chessduel/internal/board"
)

// ErrClosed is returned by every operation after Close.
var ErrClosed = errors.New("storage: closed")

// Storage keys
const (
	keyPreferences = "preferences"
	prefixTally    = "tally/"
)

// maxConflictRetries bounds the retries of a read-modify-write that lost a
// transaction conflict.
const maxConflictRetries = 8

// Preferences stores the last-used match settings.
type Preferences struct {
	Difficulty string    `json:"difficulty"`
	MaxPlies   int       `json:"max_plies"`
	LastPlayed time.Time `json:"last_played"`
}

// DefaultPreferences returns default preferences
func DefaultPreferences() *Preferences {
	return &Preferences{
		Difficulty: "medium",
		MaxPlies:   300,
	}
}

// Tally aggregates the results of every game played under one matchup.
type Tally struct {
	GamesPlayed   int            `json:"games_played"`
	WhiteWins     int            `json:"white_wins"`
	BlackWins     int            `json:"black_wins"`
	Draws         int            `json:"draws"`
	ByOutcome     map[string]int `json:"by_outcome"`
	TotalPlies    int            `json:"total_plies"`
	TotalPlayTime time.Duration  `json:"total_play_time"`
	LastPlayed    time.Time      `json:"last_played"`
}

// NewTally returns an empty tally
func NewTally() *Tally {
	return &Tally{ByOutcome: make(map[string]int)}
}

// AveragePlies returns the mean game length in plies.
func (t *Tally) AveragePlies() float64 {
	if t.GamesPlayed == 0 {
		return 0
	}
	return float64(t.TotalPlies) / float64(t.GamesPlayed)
}

// Score returns White's score in percent, draws counting half.
func (t *Tally) Score() float64 {
	if t.GamesPlayed == 0 {
		return 0
	}
	return (float64(t.WhiteWins) + float64(t.Draws)/2) / float64(t.GamesPlayed) * 100
}

// GameResult is the summary of one finished game.
type GameResult struct {
	Matchup  string      // e.g. "d3-vs-d2"
	Winner   board.Color // NoColor for draws
	Outcome  string
	Plies    int
	Duration time.Duration
}

// Storage wraps BadgerDB for persistent storage
type Storage struct {
	mu      sync.Mutex
	writeMu sync.Mutex // Serializes tally updates within this process
	db      *badger.DB
	log     zerolog.Logger
}

// Open opens (or creates) the database in dir. An empty dir selects the
// platform data directory.
func Open(dir string, logger zerolog.Logger) (*Storage, error) {
	if dir == "" {
		var err error
		if dir, err = GetDatabaseDir(); err != nil {
			return nil, fmt.Errorf("resolve database dir: %w", err)
		}
	}

	opts := badger.DefaultOptions(dir).WithLogger(badgerLogger{logger})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", dir, err)
	}
	logger.Debug().Str("dir", dir).Msg("database opened")

	return &Storage{db: db, log: logger}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return ErrClosed
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// handle returns the open database or ErrClosed.
func (s *Storage) handle() (*badger.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, ErrClosed
	}
	return s.db, nil
}

// getJSON decodes the value at key into v. A missing key leaves v untouched.
func getJSON(txn *badger.Txn, key string, v any) error {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

func setJSON(txn *badger.Txn, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return txn.Set([]byte(key), data)
}

// SavePreferences saves preferences
func (s *Storage) SavePreferences(prefs *Preferences) error {
	db, err := s.handle()
	if err != nil {
		return err
	}
	prefs.LastPlayed = time.Now()

	return db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, keyPreferences, prefs)
	})
}

// LoadPreferences loads preferences, returns defaults if not found
func (s *Storage) LoadPreferences() (*Preferences, error) {
	db, err := s.handle()
	if err != nil {
		return nil, err
	}
	prefs := DefaultPreferences()

	err = db.View(func(txn *badger.Txn) error {
		return getJSON(txn, keyPreferences, prefs)
	})
	return prefs, err
}

// LoadTally loads the tally of a matchup, returns an empty tally if none.
func (s *Storage) LoadTally(matchup string) (*Tally, error) {
	db, err := s.handle()
	if err != nil {
		return nil, err
	}
	tally := NewTally()

	err = db.View(func(txn *badger.Txn) error {
		return getJSON(txn, prefixTally+matchup, tally)
	})
	return tally, err
}

// RecordResult adds a finished game to its matchup's tally. The update is a
// single transaction, retried when another process wins a conflict.
func (s *Storage) RecordResult(result GameResult) error {
	db, err := s.handle()
	if err != nil {
		return err
	}
	key := prefixTally + result.Matchup

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	for attempt := 0; ; attempt++ {
		err = db.Update(func(txn *badger.Txn) error {
			tally := NewTally()
			if err := getJSON(txn, key, tally); err != nil {
				return err
			}
			tally.add(result)
			return setJSON(txn, key, tally)
		})
		if !errors.Is(err, badger.ErrConflict) || attempt >= maxConflictRetries {
			break
		}
		s.log.Debug().Str("matchup", result.Matchup).Int("attempt", attempt+1).Msg("tally update conflict, retrying")
	}
	if err != nil {
		return fmt.Errorf("record result for %s: %w", result.Matchup, err)
	}
	return nil
}

func (t *Tally) add(r GameResult) {
	if t.ByOutcome == nil {
		t.ByOutcome = make(map[string]int)
	}
	t.GamesPlayed++
	t.TotalPlies += r.Plies
	t.TotalPlayTime += r.Duration
	t.LastPlayed = time.Now()
	t.ByOutcome[r.Outcome]++

	switch r.Winner {
	case board.White:
		t.WhiteWins++
	case board.Black:
		t.BlackWins++
	default:
		t.Draws++
	}
}

// Matchups lists every matchup with a tally, sorted.
func (s *Storage) Matchups() ([]string, error) {
	db, err := s.handle()
	if err != nil {
		return nil, err
	}

	var names []string
	err = db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(prefixTally)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			names = append(names, strings.TrimPrefix(string(it.Item().Key()), prefixTally))
		}
		return nil
	})
	sort.Strings(names)
	return names, err
}

// badgerLogger routes badger's internal logging to zerolog.
type badgerLogger struct {
	log zerolog.Logger
}

func (l badgerLogger) Errorf(format string, args ...any) {
	l.log.Error().Str("component", "badger").Msgf(strings.TrimSpace(format), args...)
}

func (l badgerLogger) Warningf(format string, args ...any) {
	l.log.Warn().Str("component", "badger").Msgf(strings.TrimSpace(format), args...)
}

func (l badgerLogger) Infof(format string, args ...any) {
	l.log.Debug().Str("component", "badger").Msgf(strings.TrimSpace(format), args...)
}

func (l badgerLogger) Debugf(format string, args ...any) {
	l.log.Trace().Str("component", "badger").Msgf(strings.TrimSpace(format), args...)
}
