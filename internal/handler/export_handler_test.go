package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/locvowork/employee_management_sample/reportgateway/internal/domain"
	"github.com/locvowork/employee_management_sample/reportgateway/internal/service"
	"github.com/locvowork/employee_management_sample/reportgateway/internal/service/serviceutils"
)

type stubRepo struct {
	rows   []domain.EmployeeRow
	filter domain.EmployeeFilter
	err    error
}

func (r *stubRepo) Each(_ context.Context, filter domain.EmployeeFilter, fn func(*domain.EmployeeRow) error) error {
	r.filter = filter
	if r.err != nil {
		return r.err
	}
	for i := range r.rows {
		if err := fn(&r.rows[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *stubRepo) DepartmentSummaries(context.Context) ([]domain.DepartmentSummary, error) {
	return []domain.DepartmentSummary{
		{DeptNo: "d001", DeptName: "Marketing", Headcount: 1, Payroll: decimal.NewFromInt(50000), Average: decimal.NewFromInt(50000)},
	}, nil
}

func newTestServer() (*echo.Echo, *stubRepo) {
	repo := &stubRepo{rows: []domain.EmployeeRow{{
		EmpNo: 10001, FirstName: "Georgi", LastName: "Facello", Gender: "M",
		HireDate: time.Date(1986, 6, 26, 0, 0, 0, 0, time.UTC),
	}}}
	svc := service.NewExportService(repo, service.WithDict(service.NewDictService(service.DefaultDictEntries, 0)))
	h := NewExportHandler(svc)

	e := echo.New()
	g := e.Group("/export")
	g.GET("/employees", h.ExportEmployeesHandler)
	g.GET("/employees/template", h.TemplateHandler)
	g.GET("/departments/summary", h.DepartmentSummaryHandler)
	g.POST("/employees/archive", h.ArchiveHandler)
	return e, repo
}

func serve(e *echo.Echo, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func openWorkbook(t *testing.T, rec *httptest.ResponseRecorder) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestExportEmployeesHandler(t *testing.T) {
	e, repo := newTestServer()

	rec := serve(e, http.MethodGet, "/export/employees?groups=basic&dept_no=d005&limit=10&title=Staff")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/octet-stream; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Disposition"), "attachment; filename=employees_"))
	assert.Equal(t, domain.EmployeeFilter{DeptNo: "d005", Limit: 10}, repo.filter)

	f := openWorkbook(t, rec)
	title, err := f.GetCellValue("Employees", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Staff", title)
	gender, err := f.GetCellValue("Employees", "E3")
	require.NoError(t, err)
	assert.Equal(t, "Male", gender)
}

func TestExportEmployeesHandler_UnknownSource(t *testing.T) {
	e, _ := newTestServer()

	rec := serve(e, http.MethodGet, "/export/employees?source=mongo")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp serviceutils.GenericResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "mongo")
}

func TestExportEmployeesHandler_SourceFailure(t *testing.T) {
	e, repo := newTestServer()
	repo.err = errors.New("connection refused")

	rec := serve(e, http.MethodGet, "/export/employees")
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp serviceutils.GenericResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "connection refused")
}

func TestTemplateHandler(t *testing.T) {
	e, _ := newTestServer()

	rec := serve(e, http.MethodGet, "/export/employees/template")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "attachment; filename=employee_import_template.xlsx", rec.Header().Get("Content-Disposition"))

	rows, err := openWorkbook(t, rec).GetRows("Template")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestDepartmentSummaryHandler(t *testing.T) {
	e, _ := newTestServer()

	rec := serve(e, http.MethodGet, "/export/departments/summary")
	require.Equal(t, http.StatusOK, rec.Code)

	rows, err := openWorkbook(t, rec).GetRows("Departments")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Marketing", rows[1][1])
}

func TestArchiveHandler_Disabled(t *testing.T) {
	e, _ := newTestServer()

	rec := serve(e, http.MethodPost, "/export/employees/archive?groups=basic")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestExportQuery_Options(t *testing.T) {
	opts := ExportQuery{Groups: " basic, ,payroll ", Source: "elastic", Gender: "F", Offset: 5}.options()
	assert.Equal(t, []string{"basic", "payroll"}, opts.Groups)
	assert.Equal(t, "elastic", opts.Source)
	assert.Equal(t, domain.EmployeeFilter{Gender: "F", Offset: 5}, opts.Filter)
	assert.False(t, opts.Template)
}
