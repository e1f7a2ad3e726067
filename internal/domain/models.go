package domain

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/locvowork/employee_management_sample/reportgateway/pkg/excelmap"
)

// ==================== TABLES ====================

// Department represents the departments table
type Department struct {
	DeptNo   string `json:"dept_no" db:"dept_no"`
	DeptName string `json:"dept_name" db:"dept_name"`
}

// DictEntry is one row of the sys_dict_data table: a display label for a
// code within a dictionary type.
type DictEntry struct {
	DictType string `json:"dict_type" db:"dict_type" datastore:"DictType"`
	Value    string `json:"value" db:"dict_value" datastore:"Value"`
	Label    string `json:"label" db:"dict_label" datastore:"Label"`
	Sort     int    `json:"sort" db:"dict_sort" datastore:"Sort"`
}

// ==================== EXPORT ROWS ====================

// AuditInfo is embedded by export rows; its columns only appear in the audit group.
type AuditInfo struct {
	CreatedBy string     `json:"created_by" db:"created_by" excel:"title:Created By;sort:900;type:export;groups:audit"`
	CreatedAt time.Time  `json:"created_at" db:"created_at" excel:"title:Created At;sort:910;type:export;groups:audit"`
	UpdatedAt *time.Time `json:"updated_at,omitempty" db:"updated_at" excel:"title:Updated At;sort:920;type:export;groups:audit"`
}

// EmployeeRow is an employee joined with its current department, title and
// salary. It is the row type of the employee export and import template.
type EmployeeRow struct {
	AuditInfo

	EmpNo      int             `json:"emp_no" excel:"title:Employee No**Leave blank for new hires;sort:10;width:14;groups:basic,hr,payroll"`
	FirstName  string          `json:"first_name" excel:"title:First Name;sort:20;align:left;groups:basic,hr,payroll"`
	LastName   string          `json:"last_name" excel:"title:Last Name;sort:30;align:left;groups:basic,hr,payroll"`
	Gender     string          `json:"gender" excel:"title:Gender**M or F;sort:40;width:10;dict:sys_user_sex;groups:basic,hr"`
	BirthDate  time.Time       `json:"birth_date" excel:"title:Birth Date**yyyy-mm-dd;sort:50;format:yyyy-MM-dd;groups:hr"`
	HireDate   time.Time       `json:"hire_date" excel:"title:Hire Date**yyyy-mm-dd;sort:60;format:yyyy-MM-dd;groups:basic,hr"`
	Department *Department     `json:"department,omitempty" excel:"title:Department;attr:department.deptName;sort:70;width:24;align:left;type:export;groups:basic,hr,payroll|title:Department No**Code such as d005;attr:department.deptNo;sort:70;type:template"`
	Title      string          `json:"title" excel:"title:Title;sort:80;align:left;groups:hr,payroll"`
	Salary     decimal.Decimal `json:"salary" excel:"title:Salary;sort:90;align:right;type:export;formatter:money;groups:payroll"`
	Currency   string          `json:"currency" excel:"title:Currency;sort:95;width:10;type:export;dict:sys_currency;groups:payroll"`

	// HideBirthDay limits the exported birth date to the year.
	HideBirthDay bool `json:"hide_birth_day" excel:"-"`
}

func (e EmployeeRow) ExcelMethods() []excelmap.MethodField {
	return []excelmap.MethodField{
		{Method: "FullName", Tag: "title:Full Name;sort:25;width:28;align:left;type:export;groups:basic,hr,payroll"},
		{Method: "TenureYears", Tag: "title:Tenure (years);sort:65;type:export;format:0.0;groups:hr"},
	}
}

// FullName returns "First Last".
func (e EmployeeRow) FullName() string {
	switch {
	case e.FirstName == "":
		return e.LastName
	case e.LastName == "":
		return e.FirstName
	}
	return e.FirstName + " " + e.LastName
}

// TenureYears returns the years since the hire date, rounded to one decimal.
func (e EmployeeRow) TenureYears() float64 {
	return tenureYears(e.HireDate, time.Now())
}

func tenureYears(hired, now time.Time) float64 {
	if hired.IsZero() || now.Before(hired) {
		return 0
	}
	years := now.Sub(hired).Hours() / 24 / 365.25
	return math.Round(years*10) / 10
}

// ExcelFormat shows only the birth year of employees who asked for it.
func (e EmployeeRow) ExcelFormat(attr string) (string, bool) {
	if attr == "BirthDate" && e.HideBirthDay {
		return "yyyy", true
	}
	return "", false
}

// DepartmentSummary is one row of the department headcount and payroll report.
type DepartmentSummary struct {
	DeptNo    string          `json:"dept_no" excel:"title:Dept No;attr:deptNo;width:10"`
	DeptName  string          `json:"dept_name" excel:"title:Department;attr:deptName;align:left"`
	Headcount int             `json:"headcount" excel:"title:Headcount;attr:headcount"`
	Payroll   decimal.Decimal `json:"payroll" excel:"title:Payroll;attr:payroll;align:right;formatter:money"`
	Average   decimal.Decimal `json:"average" excel:"title:Average Salary;attr:average;align:right;formatter:money"`
}

// DepartmentSummaryHeaders is the column order of the summary report.
var DepartmentSummaryHeaders = []excelmap.HeaderColumn{
	{Key: "deptNo", Title: "Dept No"},
	{Key: "deptName", Title: "Department"},
	{Key: "headcount", Title: "Headcount"},
	{Key: "payroll", Title: "Payroll"},
	{Key: "average", Title: "Average Salary"},
}
