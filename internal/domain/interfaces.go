package domain

import "context"

// EmployeeFilter defines criteria for exporting employees
type EmployeeFilter struct {
	DeptNo string
	Gender string
	Limit  int
	Offset int
}

// EmployeeSource streams export rows. fn is called once per row in emp_no
// order; returning an error stops the iteration.
type EmployeeSource interface {
	Each(ctx context.Context, filter EmployeeFilter, fn func(*EmployeeRow) error) error
}

// EmployeeRepository defines the interface for employee data access
type EmployeeRepository interface {
	EmployeeSource
	DepartmentSummaries(ctx context.Context) ([]DepartmentSummary, error)
}

// DictSource loads dictionary entries.
type DictSource interface {
	GetDictEntries(ctx context.Context, dictType string) ([]DictEntry, error)
}

// DictRepository defines the interface for dictionary data access
type DictRepository interface {
	DictSource
	ListDictTypes(ctx context.Context) ([]string, error)
}
