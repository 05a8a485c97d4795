package repositories

import (
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"secure-messenger/domain/feed"

	"github.com/dgraph-io/badger/v4"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// sequenceDigits pads sequences so that lexicographical order is append order.
const sequenceDigits = 19

type IFeedRepository interface {
	Store(entry FeedEntry) error
	Scan(channel feed.Channel) ([]FeedEntry, error)
	LastKey(channel feed.Channel) (string, error)
}

type FeedRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewFeedRepository(db *badger.DB, log *slog.Logger) FeedRepository {
	return FeedRepository{db: db, log: log}
}

// FeedEntry is one stored child of a channel.
type FeedEntry struct {
	Channel  feed.Channel
	Key      string
	Sequence uint64
	Payload  map[string]any
	At       time.Time
}

// EntryKey builds the ordered key of an entry: "{sequence_padded}-{suffix}".
func EntryKey(sequence uint64, suffix string) string {
	return fmt.Sprintf("%0*d-%s", sequenceDigits, sequence, suffix)
}

// Store persists an entry in BadgerDB.
// The key is formatted as "feed:{escaped_channel}:{entry_key}" so that a prefix
// scan returns the channel's entries in append order.
func (r FeedRepository) Store(entry FeedEntry) error {
	value, err := structpb.NewStruct(map[string]any{
		"payload": entry.Payload,
		"at":      entry.At.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("encode entry %s: %w", entry.Key, err)
	}
	bytes, err := proto.Marshal(value)
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(entryKey(entry.Channel, entry.Key), bytes)
	})
}

// Scan returns every entry of a channel, oldest first.
func (r FeedRepository) Scan(channel feed.Channel) ([]FeedEntry, error) {
	var entries []FeedEntry
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := channelPrefix(channel)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			key := string(item.Key()[len(prefix):])
			err := item.Value(func(value []byte) error {
				entry, err := toFeedEntry(channel, key, value)
				if err != nil {
					// A corrupted value must not hide the rest of the channel
					r.log.Warn("Skipping unreadable entry", "channel", channel, "key", key, "error", err)
					return nil
				}
				entries = append(entries, entry)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return entries, err
}

// LastKey returns the key of the newest entry of a channel, "" when empty.
func (r FeedRepository) LastKey(channel feed.Channel) (string, error) {
	var last string
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := channelPrefix(channel)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()

		it.Seek(append(append([]byte{}, prefix...), 0xFF))
		if !it.ValidForPrefix(prefix) {
			return nil
		}
		last = string(it.Item().Key()[len(prefix):])
		return nil
	})
	return last, err
}

func channelPrefix(channel feed.Channel) []byte {
	return []byte("feed:" + url.QueryEscape(channel.String()) + ":")
}

func entryKey(channel feed.Channel, key string) []byte {
	return append(channelPrefix(channel), key...)
}

// SequenceOf extracts the sequence of an entry key.
func SequenceOf(key string) (uint64, error) {
	if len(key) < sequenceDigits {
		return 0, fmt.Errorf("malformed entry key %q", key)
	}
	return strconv.ParseUint(key[:sequenceDigits], 10, 64)
}

func toFeedEntry(channel feed.Channel, key string, value []byte) (FeedEntry, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(value, &s); err != nil {
		return FeedEntry{}, err
	}
	sequence, err := SequenceOf(key)
	if err != nil {
		return FeedEntry{}, err
	}
	fields := s.AsMap()
	entry := FeedEntry{Channel: channel, Key: key, Sequence: sequence}
	if payload, ok := fields["payload"].(map[string]any); ok {
		entry.Payload = payload
	}
	if at, ok := fields["at"].(string); ok {
		entry.At, _ = time.Parse(time.RFC3339Nano, at)
	}
	return entry, nil
}
