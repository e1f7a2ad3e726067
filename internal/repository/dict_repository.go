package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/locvowork/employee_management_sample/reportgateway/internal/domain"
	"github.com/locvowork/employee_management_sample/reportgateway/internal/repository/builder"
)

// Disabled entries have a status other than "0".
const dictStatusEnabled = "0"

type dictRepository struct {
	db *sql.DB
}

// NewDictRepository creates a repository over the sys_dict_data table.
func NewDictRepository(db *sql.DB) domain.DictRepository {
	return &dictRepository{db: db}
}

func (r *dictRepository) GetDictEntries(ctx context.Context, dictType string) ([]domain.DictEntry, error) {
	query, args := builder.NewSQLBuilder().
		Select("dict_type", "dict_value", "dict_label", "dict_sort").
		From("sys_dict_data").
		Where("dict_type = ?", dictType).
		Where("status = ?", dictStatusEnabled).
		OrderBy("dict_sort ASC").
		Build()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query dictionary %s: %w", dictType, err)
	}
	defer rows.Close()

	var entries []domain.DictEntry
	for rows.Next() {
		var e domain.DictEntry
		if err := rows.Scan(&e.DictType, &e.Value, &e.Label, &e.Sort); err != nil {
			return nil, fmt.Errorf("scan dictionary entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *dictRepository) ListDictTypes(ctx context.Context) ([]string, error) {
	query, args := builder.NewSQLBuilder().
		Select("DISTINCT dict_type").
		From("sys_dict_data").
		Where("status = ?", dictStatusEnabled).
		OrderBy("dict_type ASC").
		Build()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query dictionary types: %w", err)
	}
	defer rows.Close()

	var types []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, rows.Err()
}
