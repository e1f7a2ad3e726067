package service

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/locvowork/employee_management_sample/reportgateway/internal/domain"
	"github.com/locvowork/employee_management_sample/reportgateway/internal/logger"
	"github.com/locvowork/employee_management_sample/reportgateway/pkg/excelmap"
)

// Dictionary sources selectable through DICT_SOURCE.
const (
	DictSourcePostgres  = "postgres"
	DictSourceDatastore = "datastore"
	DictSourceStatic    = "static"
)

// dictCacheSize bounds the number of dictionary types kept in memory.
const dictCacheSize = 256

// DictService translates dictionary codes to labels. Each dictionary type is
// loaded from the source on first use and kept for ttl; concurrent misses on
// the same type share one load. It implements excelmap.DictResolver.
type DictService struct {
	source domain.DictSource
	cache  *expirable.LRU[string, map[string]string]
	loads  singleflight.Group
}

var _ excelmap.DictResolver = (*DictService)(nil)

// NewDictService creates a DictService. A ttl of zero caches until evicted.
func NewDictService(source domain.DictSource, ttl time.Duration) *DictService {
	return &DictService{
		source: source,
		cache:  expirable.NewLRU[string, map[string]string](dictCacheSize, nil, ttl),
	}
}

// Label returns the label of value in dictType, or excelmap.ErrDictNotFound.
func (s *DictService) Label(ctx context.Context, dictType, value string) (string, error) {
	labels, err := s.labels(ctx, dictType)
	if err != nil {
		return "", err
	}
	label, ok := labels[value]
	if !ok {
		return "", excelmap.ErrDictNotFound
	}
	return label, nil
}

// Entries returns the entries of dictType straight from the source.
func (s *DictService) Entries(ctx context.Context, dictType string) ([]domain.DictEntry, error) {
	return s.source.GetDictEntries(ctx, dictType)
}

// Invalidate drops the given dictionary types, or all of them when none are given.
func (s *DictService) Invalidate(dictTypes ...string) {
	if len(dictTypes) == 0 {
		s.cache.Purge()
		return
	}
	for _, t := range dictTypes {
		s.cache.Remove(t)
	}
}

func (s *DictService) labels(ctx context.Context, dictType string) (map[string]string, error) {
	if labels, ok := s.cache.Get(dictType); ok {
		return labels, nil
	}

	v, err, _ := s.loads.Do(dictType, func() (interface{}, error) {
		// A load that finished while this caller waited has already filled the cache.
		if labels, ok := s.cache.Get(dictType); ok {
			return labels, nil
		}
		entries, err := s.source.GetDictEntries(ctx, dictType)
		if err != nil {
			return nil, fmt.Errorf("load dictionary %s: %w", dictType, err)
		}
		labels := make(map[string]string, len(entries))
		for _, e := range entries {
			labels[e.Value] = e.Label
		}
		logger.DebugLog(ctx, "Loaded dictionary %s with %d entries", dictType, len(labels))
		s.cache.Add(dictType, labels)
		return labels, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]string), nil
}

// StaticDictSource serves a fixed set of entries.
type StaticDictSource []domain.DictEntry

func (s StaticDictSource) GetDictEntries(_ context.Context, dictType string) ([]domain.DictEntry, error) {
	var out []domain.DictEntry
	for _, e := range s {
		if e.DictType == dictType {
			out = append(out, e)
		}
	}
	return out, nil
}

// DefaultDictEntries backs the static dictionary source.
var DefaultDictEntries = StaticDictSource{
	{DictType: "sys_user_sex", Value: "M", Label: "Male", Sort: 1},
	{DictType: "sys_user_sex", Value: "F", Label: "Female", Sort: 2},
	{DictType: "sys_currency", Value: "USD", Label: "US Dollar", Sort: 1},
	{DictType: "sys_currency", Value: "EUR", Label: "Euro", Sort: 2},
	{DictType: "sys_currency", Value: "VND", Label: "Vietnamese Dong", Sort: 3},
}
