package service

import (
	"bytes"
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/locvowork/employee_management_sample/reportgateway/internal/domain"
)

type sliceSource []domain.EmployeeRow

func (s sliceSource) Each(_ context.Context, _ domain.EmployeeFilter, fn func(*domain.EmployeeRow) error) error {
	for i := range s {
		if err := fn(&s[i]); err != nil {
			return err
		}
	}
	return nil
}

type fakeRepo struct {
	sliceSource
	summaries []domain.DepartmentSummary
	err       error
}

func (r *fakeRepo) DepartmentSummaries(context.Context) ([]domain.DepartmentSummary, error) {
	return r.summaries, r.err
}

func sampleEmployees() sliceSource {
	hired := time.Date(1986, 6, 26, 0, 0, 0, 0, time.UTC)
	return sliceSource{
		{
			EmpNo: 10001, FirstName: "Georgi", LastName: "Facello", Gender: "M",
			BirthDate: time.Date(1953, 9, 2, 0, 0, 0, 0, time.UTC), HireDate: hired,
			Department: &domain.Department{DeptNo: "d005", DeptName: "Development"},
			Title:      "Senior Engineer", Salary: decimal.RequireFromString("88958.5"), Currency: "USD",
		},
		{
			EmpNo: 10002, FirstName: "Bezalel", LastName: "Simmel", Gender: "X",
			BirthDate: time.Date(1964, 6, 2, 0, 0, 0, 0, time.UTC), HireDate: hired,
			HideBirthDay: true,
		},
	}
}

func workbookBytes(buf *bytes.Buffer) *bytes.Reader {
	return bytes.NewReader(buf.Bytes())
}
