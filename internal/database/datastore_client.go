package database

import (
	"context"
	"fmt"

	"cloud.google.com/go/datastore"

	"github.com/locvowork/employee_management_sample/reportgateway/internal/domain"
)

const (
	dictEntryKind = "DictEntry"
	// Datastore rejects PutMulti calls with more than 500 entities.
	maxPutBatch = 500
)

// DatastoreClient wraps the cloud datastore client
type DatastoreClient struct {
	client *datastore.Client
}

// NewDatastoreClient connects to the project's datastore.
func NewDatastoreClient(ctx context.Context, projectID string) (*DatastoreClient, error) {
	client, err := datastore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("create datastore client: %w", err)
	}
	return &DatastoreClient{client: client}, nil
}

// WrapDatastoreClient wraps existing datastore client
func WrapDatastoreClient(client *datastore.Client) *DatastoreClient {
	if client == nil {
		return nil
	}
	return &DatastoreClient{client: client}
}

// Close releases the underlying connection.
func (dc *DatastoreClient) Close() error {
	if dc == nil || dc.client == nil {
		return nil
	}
	return dc.client.Close()
}

func dictEntryKey(e domain.DictEntry) *datastore.Key {
	return datastore.NameKey(dictEntryKind, e.DictType+"/"+e.Value, nil)
}

// SaveDictEntries upserts entries keyed by dictionary type and value.
func (dc *DatastoreClient) SaveDictEntries(ctx context.Context, entries []domain.DictEntry) error {
	if dc == nil || dc.client == nil {
		return fmt.Errorf("datastore client is nil")
	}

	for start := 0; start < len(entries); start += maxPutBatch {
		end := start + maxPutBatch
		if end > len(entries) {
			end = len(entries)
		}
		batch := entries[start:end]
		keys := make([]*datastore.Key, len(batch))
		for i := range batch {
			keys[i] = dictEntryKey(batch[i])
		}
		if _, err := dc.client.PutMulti(ctx, keys, batch); err != nil {
			return fmt.Errorf("save dictionary entries: %w", err)
		}
	}
	return nil
}

// GetDictEntries returns the entries of dictType ordered by Sort.
// It implements domain.DictSource.
func (dc *DatastoreClient) GetDictEntries(ctx context.Context, dictType string) ([]domain.DictEntry, error) {
	if dc == nil || dc.client == nil {
		return nil, fmt.Errorf("datastore client is nil")
	}

	var result []domain.DictEntry
	q := datastore.NewQuery(dictEntryKind).
		FilterField("DictType", "=", dictType).
		Order("Sort")
	if _, err := dc.client.GetAll(ctx, q, &result); err != nil {
		return nil, fmt.Errorf("query dictionary %s: %w", dictType, err)
	}
	return result, nil
}
