package api

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/swiftbyte/backend/attr"
	"github.com/swiftbyte/backend/handler"
	"github.com/swiftbyte/backend/store"
)

// memStore keeps records in memory keyed like the table.
type memStore struct {
	items   map[store.Key]attr.Record
	skipped []attr.Skip
	err     error
	updates []attr.Record
}

func newMemStore(records ...attr.Record) *memStore {
	m := &memStore{items: map[store.Key]attr.Record{}}
	for _, rec := range records {
		key := store.Key{ID: rec["id"].(string), DataClass: rec["dataClass"].(string)}
		m.items[key] = rec
	}
	return m
}

func (m *memStore) Put(_ context.Context, key store.Key, rec attr.Record) error {
	if m.err != nil {
		return m.err
	}
	if _, ok := m.items[key]; ok {
		return fmt.Errorf("failed to put %s: %w", key, store.ErrConflict)
	}
	if res := attr.Encode(rec); !res.Complete() {
		return fmt.Errorf("failed to encode %s: %w", key, res.Err())
	}
	stored := maps.Clone(rec)
	stored["id"] = key.ID
	stored["dataClass"] = key.DataClass
	m.items[key] = stored
	return nil
}

func (m *memStore) Get(_ context.Context, key store.Key) (attr.Result[attr.Record], error) {
	if m.err != nil {
		return attr.Result[attr.Record]{}, m.err
	}
	rec, ok := m.items[key]
	if !ok {
		return attr.Result[attr.Record]{}, fmt.Errorf("failed to get %s: %w", key, store.ErrNotFound)
	}
	return attr.Result[attr.Record]{Value: maps.Clone(rec), Skipped: m.skipped}, nil
}

func (m *memStore) Update(_ context.Context, key store.Key, fields attr.Record) error {
	if m.err != nil {
		return m.err
	}
	rec, ok := m.items[key]
	if !ok {
		return fmt.Errorf("failed to update %s: %w", key, store.ErrNotFound)
	}
	m.updates = append(m.updates, fields)
	maps.Copy(rec, fields)
	return nil
}

func (m *memStore) Scan(_ context.Context, dataClass string, filters map[string]string) (attr.Result[[]attr.Record], error) {
	res := attr.Result[[]attr.Record]{Value: []attr.Record{}, Skipped: m.skipped}
	if m.err != nil {
		return res, m.err
	}

	keys := slices.SortedFunc(maps.Keys(m.items), func(a, b store.Key) int {
		return cmp.Compare(a.ID, b.ID)
	})
	for _, key := range keys {
		if key.DataClass != dataClass {
			continue
		}
		rec := m.items[key]
		matches := true
		for k, v := range filters {
			if rec[k] != v {
				matches = false
			}
		}
		if matches {
			res.Value = append(res.Value, maps.Clone(rec))
		}
	}
	return res, nil
}

type fakeSNS struct {
	inputs []*sns.PublishInput
	err    error
}

func (f *fakeSNS) Publish(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{}, nil
}

func (f *fakeSNS) changes() []Change {
	out := []Change{}
	for _, input := range f.inputs {
		var change Change
		if err := json.Unmarshal([]byte(*input.Message), &change); err == nil {
			out = append(out, change)
		}
	}
	return out
}

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestAPI(table Store, publisher *Publisher) *API {
	a := New(Config{TableName: "swiftbyte", TopicARN: "arn:aws:sns:ap-southeast-2:123456789012:changes"}, table, publisher)
	a.now = func() time.Time { return fixedNow }
	return a
}

func newTestContext() *handler.Context {
	return handler.GetWithSlogLogger(context.Background(), slog.New(slog.NewJSONHandler(io.Discard, nil)))
}
