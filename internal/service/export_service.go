package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"github.com/locvowork/employee_management_sample/reportgateway/internal/domain"
	"github.com/locvowork/employee_management_sample/reportgateway/internal/logger"
	"github.com/locvowork/employee_management_sample/reportgateway/internal/storage"
	"github.com/locvowork/employee_management_sample/reportgateway/pkg/excelmap"
)

// Employee sources selectable per export.
const (
	SourcePostgres = "postgres"
	SourceElastic  = "elastic"
)

var (
	ErrUnknownSource   = errors.New("unknown employee source")
	ErrArchiveDisabled = errors.New("export archive is not configured")
)

// EmployeeExport selects what an employee workbook contains.
type EmployeeExport struct {
	Filter   domain.EmployeeFilter
	Groups   []string
	Source   string
	Title    string
	Template bool
}

func (o EmployeeExport) kind() excelmap.ExportKind {
	if o.Template {
		return excelmap.KindTemplate
	}
	return excelmap.KindExport
}

// ExportService builds employee workbooks.
type ExportService struct {
	sources       map[string]domain.EmployeeSource
	defaultSource string
	repo          domain.EmployeeRepository
	dict          excelmap.DictResolver
	formatters    *excelmap.Formatters
	engine        excelmap.Engine
	schemaPath    string
	archiver      *storage.Archiver
}

// ExportOption configures an ExportService.
type ExportOption func(*ExportService)

// WithSource registers an additional employee source under name.
func WithSource(name string, src domain.EmployeeSource) ExportOption {
	return func(s *ExportService) {
		if src != nil {
			s.sources[name] = src
		}
	}
}

// WithDict sets the dictionary resolver.
func WithDict(dict excelmap.DictResolver) ExportOption {
	return func(s *ExportService) { s.dict = dict }
}

// WithEngine selects the excelmap engine.
func WithEngine(engine excelmap.Engine) ExportOption {
	return func(s *ExportService) { s.engine = engine }
}

// WithSchemaFile replaces the employee struct tags by a YAML schema.
func WithSchemaFile(path string) ExportOption {
	return func(s *ExportService) { s.schemaPath = path }
}

// WithArchiver enables Archive.
func WithArchiver(a *storage.Archiver) ExportOption {
	return func(s *ExportService) { s.archiver = a }
}

// NewExportService creates an export service reading employees from repo
// unless another source is requested.
func NewExportService(repo domain.EmployeeRepository, opts ...ExportOption) *ExportService {
	s := &ExportService{
		sources:       make(map[string]domain.EmployeeSource),
		defaultSource: SourcePostgres,
		repo:          repo,
		formatters:    NewFormatters(),
	}
	if repo != nil {
		s.sources[SourcePostgres] = repo
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ExportService) newSession(ctx context.Context) (*excelmap.Session, error) {
	opts := []excelmap.Option{
		excelmap.WithLogger(*logger.FromContext(ctx)),
		excelmap.WithFormatters(s.formatters),
		excelmap.WithEngine(s.engine),
		excelmap.WithCommentAuthor("reportgateway"),
	}
	if s.dict != nil {
		opts = append(opts, excelmap.WithDictResolver(s.dict))
	}
	return excelmap.NewSession(ctx, opts...)
}

func (s *ExportService) employeeSchema(opts EmployeeExport) (*excelmap.Schema, error) {
	if s.schemaPath != "" {
		return excelmap.LoadSchema(s.schemaPath, opts.kind(), opts.Groups...)
	}
	return excelmap.Scan(domain.EmployeeRow{}, opts.kind(), opts.Groups...)
}

func (s *ExportService) source(name string) (domain.EmployeeSource, error) {
	if name == "" {
		name = s.defaultSource
	}
	src, ok := s.sources[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, name)
	}
	return src, nil
}

// EmployeeWorkbook builds the employee export, or the empty import template
// when opts.Template is set. The caller owns the returned session and must
// Dispose it.
func (s *ExportService) EmployeeWorkbook(ctx context.Context, opts EmployeeExport) (*excelmap.Session, error) {
	var src domain.EmployeeSource
	if !opts.Template {
		var err error
		if src, err = s.source(opts.Source); err != nil {
			return nil, err
		}
	}

	schema, err := s.employeeSchema(opts)
	if err != nil {
		return nil, fmt.Errorf("employee schema: %w", err)
	}

	sess, err := s.newSession(ctx)
	if err != nil {
		return nil, err
	}
	sheetName := "Employees"
	if opts.Template {
		sheetName = "Template"
	}
	sheet, err := sess.NewSheet(ctx, excelmap.SheetConfig{Name: sheetName, Title: opts.Title, Schema: schema})
	if err != nil {
		sess.Dispose()
		return nil, err
	}
	if opts.Template {
		return sess, nil
	}

	start := time.Now()
	rows := 0
	err = src.Each(ctx, opts.Filter, func(e *domain.EmployeeRow) error {
		rows++
		return sheet.AppendRow(ctx, e)
	})
	if err != nil {
		sess.Dispose()
		return nil, fmt.Errorf("export employees: %w", err)
	}

	logger.InfoLog(ctx, "Exported %s employees in %s with %d degraded cells",
		humanize.Comma(int64(rows)), time.Since(start).Round(time.Millisecond), len(sess.Issues()))
	return sess, nil
}

// DepartmentSummaryWorkbook builds the per-department headcount and payroll
// report with a total row.
func (s *ExportService) DepartmentSummaryWorkbook(ctx context.Context, title string) (*excelmap.Session, error) {
	if s.repo == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, SourcePostgres)
	}
	summaries, err := s.repo.DepartmentSummaries(ctx)
	if err != nil {
		return nil, fmt.Errorf("department summaries: %w", err)
	}
	schema, err := excelmap.Scan(domain.DepartmentSummary{}, excelmap.KindExport)
	if err != nil {
		return nil, err
	}

	headers := domain.DepartmentSummaryHeaders
	titles := make([]string, len(headers))
	for i, h := range headers {
		titles[i] = h.Title
	}

	sess, err := s.newSession(ctx)
	if err != nil {
		return nil, err
	}
	sheet, err := sess.NewSheet(ctx, excelmap.SheetConfig{Name: "Departments", Title: title, Schema: schema, Headers: titles})
	if err != nil {
		sess.Dispose()
		return nil, err
	}
	if err := sheet.SetDataListByHeader(ctx, summaries, headers, departmentTotals(summaries)); err != nil {
		sess.Dispose()
		return nil, err
	}
	return sess, nil
}

func departmentTotals(summaries []domain.DepartmentSummary) map[string]float64 {
	headcount := 0
	payroll := decimal.Zero
	for _, d := range summaries {
		headcount += d.Headcount
		payroll = payroll.Add(d.Payroll)
	}
	return map[string]float64{
		"headcount": float64(headcount),
		"payroll":   payroll.Round(2).InexactFloat64(),
	}
}

// Archive writes the employee export to object storage.
func (s *ExportService) Archive(ctx context.Context, opts EmployeeExport) (*storage.Object, error) {
	if s.archiver == nil {
		return nil, ErrArchiveDisabled
	}

	sess, err := s.EmployeeWorkbook(ctx, opts)
	if err != nil {
		return nil, err
	}
	defer sess.Dispose()

	var buf bytes.Buffer
	if err := sess.Write(ctx, &buf); err != nil {
		return nil, err
	}

	obj, err := s.archiver.Archive(ctx, "employees", FileName("employees"), buf.Bytes())
	if err != nil {
		return nil, err
	}
	logger.InfoLog(ctx, "Archived %s (%s)", obj.Key, humanize.Bytes(uint64(obj.Size)))
	return obj, nil
}

// FileName returns a timestamped workbook name such as employees_20240102_150405.xlsx.
func FileName(prefix string) string {
	return fmt.Sprintf("%s_%s.xlsx", prefix, time.Now().Format("20060102_150405"))
}
