package database

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olivere/elastic/v7"
	"github.com/shopspring/decimal"

	"github.com/locvowork/employee_management_sample/reportgateway/internal/domain"
	"github.com/locvowork/employee_management_sample/reportgateway/internal/logger"
)

const scrollBatchSize = 1000

// EmployeeDoc is the search index form of domain.EmployeeRow.
type EmployeeDoc struct {
	EmpNo     int        `json:"emp_no"`
	BirthDate time.Time  `json:"birth_date"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Gender    string     `json:"gender"` // "M" or "F"
	HireDate  time.Time  `json:"hire_date"`
	DeptNo    string     `json:"dept_no,omitempty"`
	DeptName  string     `json:"dept_name,omitempty"`
	Title     string     `json:"title,omitempty"`
	Salary    string     `json:"salary,omitempty"`
	Currency  string     `json:"currency,omitempty"`
	CreatedBy string     `json:"created_by,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// NewEmployeeDoc converts an export row to its index document.
func NewEmployeeDoc(e *domain.EmployeeRow) EmployeeDoc {
	doc := EmployeeDoc{
		EmpNo:     e.EmpNo,
		BirthDate: e.BirthDate,
		FirstName: e.FirstName,
		LastName:  e.LastName,
		Gender:    e.Gender,
		HireDate:  e.HireDate,
		Title:     e.Title,
		Currency:  e.Currency,
		CreatedBy: e.CreatedBy,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
	if e.Department != nil {
		doc.DeptNo = e.Department.DeptNo
		doc.DeptName = e.Department.DeptName
	}
	if e.Currency != "" {
		doc.Salary = e.Salary.String()
	}
	return doc
}

// Row converts the document back to an export row.
func (d EmployeeDoc) Row() (*domain.EmployeeRow, error) {
	e := &domain.EmployeeRow{
		EmpNo:     d.EmpNo,
		BirthDate: d.BirthDate,
		FirstName: d.FirstName,
		LastName:  d.LastName,
		Gender:    d.Gender,
		HireDate:  d.HireDate,
		Title:     d.Title,
		Currency:  d.Currency,
	}
	e.CreatedBy = d.CreatedBy
	e.CreatedAt = d.CreatedAt
	e.UpdatedAt = d.UpdatedAt
	if d.DeptNo != "" {
		e.Department = &domain.Department{DeptNo: d.DeptNo, DeptName: d.DeptName}
	}
	if d.Salary != "" {
		s, err := decimal.NewFromString(d.Salary)
		if err != nil {
			return nil, fmt.Errorf("employee %d salary %q: %w", d.EmpNo, d.Salary, err)
		}
		e.Salary = s
	}
	return e, nil
}

// ElasticSearchClient wraps olivere/elastic client.
type ElasticSearchClient struct {
	client *elastic.Client
	index  string
}

// NewElasticSearchClient creates a new client for Elasticsearch 7.x.
func NewElasticSearchClient(url, index string, opts ...elastic.ClientOptionFunc) (*ElasticSearchClient, error) {
	opts = append([]elastic.ClientOptionFunc{
		elastic.SetURL(url),
		elastic.SetSniff(false),
	}, opts...)
	client, err := elastic.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}
	return &ElasticSearchClient{client: client, index: index}, nil
}

// Each scrolls the employee index in emp_no order and calls fn per document.
// It implements domain.EmployeeSource.
func (es *ElasticSearchClient) Each(ctx context.Context, filter domain.EmployeeFilter, fn func(*domain.EmployeeRow) error) error {
	query := elastic.NewBoolQuery()
	if filter.DeptNo != "" {
		query = query.Filter(elastic.NewTermQuery("dept_no", filter.DeptNo))
	}
	if filter.Gender != "" {
		query = query.Filter(elastic.NewTermQuery("gender", filter.Gender))
	}

	size := scrollBatchSize
	if filter.Limit > 0 && filter.Limit < size {
		size = filter.Limit
	}
	scroll := es.client.Scroll(es.index).
		Query(query).
		Size(size).
		KeepAlive("2m").
		Sort("emp_no", true)
	defer scroll.Clear(context.Background())

	skipped, sent := 0, 0
	for {
		res, err := scroll.Do(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("scroll %s: %w", es.index, err)
		}

		for _, hit := range res.Hits.Hits {
			if skipped < filter.Offset {
				skipped++
				continue
			}
			var doc EmployeeDoc
			if err := json.Unmarshal(hit.Source, &doc); err != nil {
				logger.WarnLog(ctx, "Skipping employee document %s: %v", hit.Id, err)
				continue
			}
			row, err := doc.Row()
			if err != nil {
				logger.WarnLog(ctx, "Skipping employee document %s: %v", hit.Id, err)
				continue
			}
			if err := fn(row); err != nil {
				return err
			}
			sent++
			if filter.Limit > 0 && sent >= filter.Limit {
				return nil
			}
		}
	}
	return nil
}

// BulkIndexEmployees indexes documents by emp_no.
func (es *ElasticSearchClient) BulkIndexEmployees(ctx context.Context, employees []EmployeeDoc) error {
	bulkRequest := es.client.Bulk()
	for _, emp := range employees {
		bulkRequest = bulkRequest.Add(elastic.NewBulkIndexRequest().
			Index(es.index).
			Id(strconv.Itoa(emp.EmpNo)).
			Doc(emp))
	}
	if bulkRequest.NumberOfActions() == 0 {
		return nil
	}

	bulkResponse, err := bulkRequest.Refresh("true").Do(ctx)
	if err != nil {
		return fmt.Errorf("bulk index failed: %w", err)
	}
	if failed := bulkResponse.Failed(); len(failed) > 0 {
		reason := "unknown"
		if failed[0].Error != nil {
			reason = failed[0].Error.Reason
		}
		return fmt.Errorf("bulk index: %d of %d items failed, first: %s", len(failed), len(employees), reason)
	}
	return nil
}
