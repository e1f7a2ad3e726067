package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/locvowork/employee_management_sample/reportgateway/internal/domain"
	"github.com/locvowork/employee_management_sample/reportgateway/internal/repository/builder"
)

// Current assignments carry this to_date.
const currentToDate = "'9999-01-01'"

// Salaries are stored without a currency.
const defaultCurrency = "USD"

type employeeRepository struct {
	db *sql.DB
}

// NewEmployeeRepository creates a new instance of EmployeeRepository
func NewEmployeeRepository(db *sql.DB) domain.EmployeeRepository {
	return &employeeRepository{db: db}
}

func employeeQuery(filter domain.EmployeeFilter) *builder.SQLBuilder {
	b := builder.NewSQLBuilder().
		Select(
			"e.emp_no", "e.birth_date", "e.first_name", "e.last_name", "e.gender", "e.hire_date",
			"d.dept_no", "d.dept_name", "t.title", "s.salary",
			"e.created_by", "e.created_at", "e.updated_at",
		).
		From("employees e").
		Join("LEFT", "dept_emp de", "de.emp_no = e.emp_no AND de.to_date = "+currentToDate).
		Join("LEFT", "departments d", "d.dept_no = de.dept_no").
		Join("LEFT", "titles t", "t.emp_no = e.emp_no AND t.to_date = "+currentToDate).
		Join("LEFT", "salaries s", "s.emp_no = e.emp_no AND s.to_date = "+currentToDate).
		WhereIf(filter.DeptNo != "", "de.dept_no = ?", filter.DeptNo).
		WhereIf(filter.Gender != "", "e.gender = ?", filter.Gender).
		OrderBy("e.emp_no ASC")

	if filter.Limit > 0 {
		b.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		b.Offset(filter.Offset)
	}
	return b
}

// Each streams the filtered employees through fn without buffering the result.
func (r *employeeRepository) Each(ctx context.Context, filter domain.EmployeeFilter, fn func(*domain.EmployeeRow) error) error {
	query, args := employeeQuery(filter).Build()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query employees: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			e         domain.EmployeeRow
			deptNo    sql.NullString
			deptName  sql.NullString
			title     sql.NullString
			salary    decimal.NullDecimal
			createdBy sql.NullString
			createdAt sql.NullTime
			updatedAt sql.NullTime
		)
		if err := rows.Scan(&e.EmpNo, &e.BirthDate, &e.FirstName, &e.LastName, &e.Gender, &e.HireDate,
			&deptNo, &deptName, &title, &salary, &createdBy, &createdAt, &updatedAt); err != nil {
			return fmt.Errorf("scan employee: %w", err)
		}
		if deptNo.Valid {
			e.Department = &domain.Department{DeptNo: deptNo.String, DeptName: deptName.String}
		}
		e.Title = title.String
		if salary.Valid {
			e.Salary = salary.Decimal
			e.Currency = defaultCurrency
		}
		e.CreatedBy = createdBy.String
		e.CreatedAt = createdAt.Time
		if updatedAt.Valid {
			t := updatedAt.Time
			e.UpdatedAt = &t
		}

		if err := fn(&e); err != nil {
			return err
		}
	}
	return rows.Err()
}

// DepartmentSummaries returns the current headcount and payroll per department.
func (r *employeeRepository) DepartmentSummaries(ctx context.Context) ([]domain.DepartmentSummary, error) {
	query, args := builder.NewSQLBuilder().
		Select("d.dept_no", "d.dept_name", "COUNT(de.emp_no)", "COALESCE(SUM(s.salary), 0)").
		From("departments d").
		Join("LEFT", "dept_emp de", "de.dept_no = d.dept_no AND de.to_date = "+currentToDate).
		Join("LEFT", "salaries s", "s.emp_no = de.emp_no AND s.to_date = "+currentToDate).
		GroupBy("d.dept_no", "d.dept_name").
		OrderBy("d.dept_no ASC").
		Build()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query department summaries: %w", err)
	}
	defer rows.Close()

	var out []domain.DepartmentSummary
	for rows.Next() {
		var s domain.DepartmentSummary
		if err := rows.Scan(&s.DeptNo, &s.DeptName, &s.Headcount, &s.Payroll); err != nil {
			return nil, fmt.Errorf("scan department summary: %w", err)
		}
		if s.Headcount > 0 {
			s.Average = s.Payroll.Div(decimal.NewFromInt(int64(s.Headcount))).Round(2)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
