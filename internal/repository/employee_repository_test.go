package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locvowork/employee_management_sample/reportgateway/internal/domain"
)

var employeeColumns = []string{
	"emp_no", "birth_date", "first_name", "last_name", "gender", "hire_date",
	"dept_no", "dept_name", "title", "salary", "created_by", "created_at", "updated_at",
}

func TestEmployeeRepository_Each(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	birth := time.Date(1953, 9, 2, 0, 0, 0, 0, time.UTC)
	hired := time.Date(1986, 6, 26, 0, 0, 0, 0, time.UTC)
	updated := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	rows := sqlmock.NewRows(employeeColumns).
		AddRow(10001, birth, "Georgi", "Facello", "M", hired, "d005", "Development", "Senior Engineer", "88958.50", "seed", hired, updated).
		AddRow(10002, birth, "Bezalel", "Simmel", "F", hired, nil, nil, nil, nil, nil, nil, nil)

	mock.ExpectQuery(regexp.QuoteMeta("FROM employees e LEFT JOIN dept_emp de")+".*"+regexp.QuoteMeta("WHERE de.dept_no = $1 ORDER BY e.emp_no ASC LIMIT 2")).
		WithArgs("d005").
		WillReturnRows(rows)

	repo := NewEmployeeRepository(db)
	var got []domain.EmployeeRow
	err = repo.Each(context.Background(), domain.EmployeeFilter{DeptNo: "d005", Limit: 2}, func(e *domain.EmployeeRow) error {
		got = append(got, *e)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, got, 2)

	first := got[0]
	assert.Equal(t, 10001, first.EmpNo)
	require.NotNil(t, first.Department)
	assert.Equal(t, "Development", first.Department.DeptName)
	assert.Equal(t, "Senior Engineer", first.Title)
	assert.Equal(t, "88958.5", first.Salary.String())
	assert.Equal(t, "USD", first.Currency)
	assert.Equal(t, "seed", first.CreatedBy)
	require.NotNil(t, first.UpdatedAt)
	assert.True(t, updated.Equal(*first.UpdatedAt))

	second := got[1]
	assert.Nil(t, second.Department)
	assert.Empty(t, second.Title)
	assert.True(t, second.Salary.IsZero())
	assert.Empty(t, second.Currency)
	assert.Nil(t, second.UpdatedAt)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmployeeRepository_EachStopsOnCallbackError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	hired := time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(employeeColumns).
		AddRow(1, hired, "A", "B", "M", hired, nil, nil, nil, nil, nil, nil, nil).
		AddRow(2, hired, "C", "D", "F", hired, nil, nil, nil, nil, nil, nil, nil)
	mock.ExpectQuery("FROM employees e").WillReturnRows(rows)

	stop := errors.New("stop")
	calls := 0
	err = NewEmployeeRepository(db).Each(context.Background(), domain.EmployeeFilter{}, func(*domain.EmployeeRow) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestEmployeeRepository_EachQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM employees e").WillReturnError(errors.New("connection reset"))

	err = NewEmployeeRepository(db).Each(context.Background(), domain.EmployeeFilter{}, func(*domain.EmployeeRow) error { return nil })
	assert.ErrorContains(t, err, "query employees")
}

func TestEmployeeRepository_DepartmentSummaries(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"dept_no", "dept_name", "count", "sum"}).
		AddRow("d001", "Marketing", 3, "100.00").
		AddRow("d002", "Finance", 0, "0")
	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY d.dept_no, d.dept_name ORDER BY d.dept_no ASC")).WillReturnRows(rows)

	got, err := NewEmployeeRepository(db).DepartmentSummaries(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 3, got[0].Headcount)
	assert.Equal(t, "33.33", got[0].Average.StringFixed(2))
	assert.True(t, got[1].Average.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}
