package handler

import (
	"strings"

	"github.com/locvowork/employee_management_sample/reportgateway/internal/domain"
	"github.com/locvowork/employee_management_sample/reportgateway/internal/service"
)

// ExportQuery is bound from the query string of the employee export routes.
type ExportQuery struct {
	Groups string `query:"groups" json:"groups"`
	Source string `query:"source" json:"source"`
	Title  string `query:"title" json:"title"`
	DeptNo string `query:"dept_no" json:"dept_no"`
	Gender string `query:"gender" json:"gender"`
	Limit  int    `query:"limit" json:"limit"`
	Offset int    `query:"offset" json:"offset"`
}

func (q ExportQuery) options() service.EmployeeExport {
	var groups []string
	for _, g := range strings.Split(q.Groups, ",") {
		if g = strings.TrimSpace(g); g != "" {
			groups = append(groups, g)
		}
	}
	return service.EmployeeExport{
		Filter: domain.EmployeeFilter{
			DeptNo: q.DeptNo,
			Gender: q.Gender,
			Limit:  q.Limit,
			Offset: q.Offset,
		},
		Groups: groups,
		Source: q.Source,
		Title:  q.Title,
	}
}
