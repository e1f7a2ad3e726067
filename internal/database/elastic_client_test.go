package database

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/olivere/elastic/v7"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locvowork/employee_management_sample/reportgateway/internal/domain"
)

type fakeES struct {
	mu      sync.Mutex
	pages   [][]EmployeeDoc
	served  int
	cleared bool
	bulk    string
}

func (f *fakeES) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodDelete && r.URL.Path == "/_search/scroll":
		f.cleared = true
		io.WriteString(w, `{"succeeded":true,"num_freed":1}`)
	case r.URL.Path == "/employees/_search" || r.URL.Path == "/_search/scroll":
		var hits []map[string]interface{}
		if f.served < len(f.pages) {
			for _, doc := range f.pages[f.served] {
				hits = append(hits, map[string]interface{}{"_index": "employees", "_id": strconv.Itoa(doc.EmpNo), "_source": doc})
			}
		}
		f.served++
		json.NewEncoder(w).Encode(map[string]interface{}{
			"_scroll_id": "scroll-1",
			"hits":       map[string]interface{}{"total": map[string]interface{}{"value": 3, "relation": "eq"}, "hits": hits},
		})
	case r.URL.Path == "/_bulk":
		body, _ := io.ReadAll(r.Body)
		f.bulk = string(body)
		io.WriteString(w, `{"took":1,"errors":false,"items":[{"index":{"_index":"employees","_id":"10001","status":201}}]}`)
	default:
		io.WriteString(w, `{}`)
	}
}

func newTestES(t *testing.T, f *fakeES) *ElasticSearchClient {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	es, err := NewElasticSearchClient(srv.URL, "employees", elastic.SetHealthcheck(false))
	require.NoError(t, err)
	return es
}

func sampleDocs() []EmployeeDoc {
	hired := time.Date(1986, 6, 26, 0, 0, 0, 0, time.UTC)
	return []EmployeeDoc{
		{EmpNo: 10001, FirstName: "Georgi", LastName: "Facello", Gender: "M", HireDate: hired, DeptNo: "d005", DeptName: "Development", Salary: "88958", Currency: "USD"},
		{EmpNo: 10002, FirstName: "Bezalel", LastName: "Simmel", Gender: "F", HireDate: hired},
	}
}

func TestElasticSearchClient_Each(t *testing.T) {
	f := &fakeES{pages: [][]EmployeeDoc{sampleDocs(), {{EmpNo: 10003, FirstName: "Parto"}}}}
	es := newTestES(t, f)

	var got []*domain.EmployeeRow
	err := es.Each(context.Background(), domain.EmployeeFilter{}, func(e *domain.EmployeeRow) error {
		got = append(got, e)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, 10001, got[0].EmpNo)
	require.NotNil(t, got[0].Department)
	assert.Equal(t, "Development", got[0].Department.DeptName)
	assert.True(t, got[0].Salary.Equal(decimal.NewFromInt(88958)))
	assert.Nil(t, got[1].Department)
	assert.Equal(t, 10003, got[2].EmpNo)
	assert.True(t, f.cleared)
}

func TestElasticSearchClient_EachLimitAndOffset(t *testing.T) {
	f := &fakeES{pages: [][]EmployeeDoc{sampleDocs(), {{EmpNo: 10003}}}}
	es := newTestES(t, f)

	var got []int
	err := es.Each(context.Background(), domain.EmployeeFilter{Offset: 1, Limit: 1}, func(e *domain.EmployeeRow) error {
		got = append(got, e.EmpNo)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{10002}, got)
}

func TestElasticSearchClient_EachCallbackError(t *testing.T) {
	es := newTestES(t, &fakeES{pages: [][]EmployeeDoc{sampleDocs()}})

	stop := errors.New("stop")
	err := es.Each(context.Background(), domain.EmployeeFilter{}, func(*domain.EmployeeRow) error { return stop })
	assert.ErrorIs(t, err, stop)
}

func TestElasticSearchClient_BulkIndexEmployees(t *testing.T) {
	f := &fakeES{}
	es := newTestES(t, f)

	require.NoError(t, es.BulkIndexEmployees(context.Background(), nil))
	assert.Empty(t, f.bulk)

	require.NoError(t, es.BulkIndexEmployees(context.Background(), sampleDocs()[:1]))
	assert.True(t, strings.Contains(f.bulk, `"_id":"10001"`))
	assert.True(t, strings.Contains(f.bulk, `"first_name":"Georgi"`))
}

func TestEmployeeDoc_RoundTripsRow(t *testing.T) {
	updated := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	row := &domain.EmployeeRow{
		EmpNo:      7,
		FirstName:  "Ada",
		Department: &domain.Department{DeptNo: "d009", DeptName: "Customer Service"},
		Salary:     decimal.RequireFromString("1234.56"),
		Currency:   "USD",
	}
	row.UpdatedAt = &updated

	back, err := NewEmployeeDoc(row).Row()
	require.NoError(t, err)
	assert.Equal(t, row, back)
}

func TestEmployeeDoc_InvalidSalary(t *testing.T) {
	_, err := EmployeeDoc{EmpNo: 1, Salary: "n/a"}.Row()
	assert.Error(t, err)
}
