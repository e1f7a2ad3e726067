package builder_test

import (
	"fmt"

	"github.com/locvowork/employee_management_sample/reportgateway/internal/repository/builder"
)

// Example_currentDepartment selects employees with their current department.
func Example_currentDepartment() {
	qb := builder.NewSQLBuilder().
		Select("e.emp_no", "d.dept_name").
		From("employees e").
		Join("LEFT", "dept_emp de", "de.emp_no = e.emp_no AND de.to_date = '9999-01-01'").
		Join("LEFT", "departments d", "d.dept_no = de.dept_no").
		Where("e.gender = ?", "F").
		OrderBy("e.emp_no").
		Limit(5)

	sql, args := qb.Build()
	fmt.Println("SQL:", sql)
	fmt.Printf("Args: %v\n", args)

	// Output:
	// SQL: SELECT e.emp_no, d.dept_name FROM employees e LEFT JOIN dept_emp de ON de.emp_no = e.emp_no AND de.to_date = '9999-01-01' LEFT JOIN departments d ON d.dept_no = de.dept_no WHERE e.gender = $1 ORDER BY e.emp_no LIMIT 5
	// Args: [F]
}

// Example_departmentTotals groups salaries per department.
func Example_departmentTotals() {
	sql, _ := builder.NewSQLBuilder().
		Select("d.dept_no", "COUNT(*)", "SUM(s.amount)").
		From("departments d").
		Join("INNER", "dept_emp de", "de.dept_no = d.dept_no").
		Join("INNER", "salaries s", "s.emp_no = de.emp_no").
		GroupBy("d.dept_no").
		OrderBy("d.dept_no").
		Build()
	fmt.Println(sql)

	// Output:
	// SELECT d.dept_no, COUNT(*), SUM(s.amount) FROM departments d INNER JOIN dept_emp de ON de.dept_no = d.dept_no INNER JOIN salaries s ON s.emp_no = de.emp_no GROUP BY d.dept_no ORDER BY d.dept_no
}
