package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/locvowork/employee_management_sample/reportgateway/internal/logger"
	"github.com/locvowork/employee_management_sample/reportgateway/internal/service"
	"github.com/locvowork/employee_management_sample/reportgateway/internal/service/serviceutils"
	"github.com/locvowork/employee_management_sample/reportgateway/pkg/excelmap"
)

type ExportHandler struct {
	svc *service.ExportService
}

func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{svc: svc}
}

// ExportEmployeesHandler streams the employee workbook.
// GET /export/employees?groups=basic,payroll&source=elastic&title=Staff
func (h *ExportHandler) ExportEmployeesHandler(c echo.Context) error {
	var q ExportQuery
	if err := c.Bind(&q); err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid query", err)
	}

	sess, err := h.svc.EmployeeWorkbook(c.Request().Context(), q.options())
	if err != nil {
		return exportError(c, err)
	}
	return h.send(c, sess, service.FileName("employees"))
}

// TemplateHandler streams the empty employee import template.
func (h *ExportHandler) TemplateHandler(c echo.Context) error {
	var q ExportQuery
	if err := c.Bind(&q); err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid query", err)
	}
	opts := q.options()
	opts.Template = true

	sess, err := h.svc.EmployeeWorkbook(c.Request().Context(), opts)
	if err != nil {
		return exportError(c, err)
	}
	return h.send(c, sess, "employee_import_template.xlsx")
}

// DepartmentSummaryHandler streams the department headcount and payroll report.
func (h *ExportHandler) DepartmentSummaryHandler(c echo.Context) error {
	sess, err := h.svc.DepartmentSummaryWorkbook(c.Request().Context(), c.QueryParam("title"))
	if err != nil {
		return exportError(c, err)
	}
	return h.send(c, sess, service.FileName("departments"))
}

// ArchiveHandler stores the employee workbook and returns its download link.
// Options come from the query string or a JSON body.
func (h *ExportHandler) ArchiveHandler(c echo.Context) error {
	var q ExportQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &q); err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid query", err)
	}
	if err := c.Bind(&q); err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid request", err)
	}

	obj, err := h.svc.Archive(c.Request().Context(), q.options())
	if err != nil {
		return exportError(c, err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusCreated, "Export archived successfully", obj)
}

func (h *ExportHandler) send(c echo.Context, sess *excelmap.Session, fileName string) error {
	defer sess.Dispose()
	ctx := c.Request().Context()
	if err := sess.WriteResponse(ctx, c.Response(), fileName); err != nil {
		if c.Response().Committed {
			logger.ErrorLog(ctx, "Export response aborted: %v", err)
			return nil
		}
		return serviceutils.ResponseError(c, http.StatusInternalServerError, "Failed to write workbook", err)
	}
	return nil
}

func exportError(c echo.Context, err error) error {
	logger.ErrorLog(c.Request().Context(), "Export failed: %v", err)
	switch {
	case errors.Is(err, service.ErrUnknownSource), errors.Is(err, excelmap.ErrInvalidTag), errors.Is(err, excelmap.ErrInvalidSchema):
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid export request", err)
	case errors.Is(err, service.ErrArchiveDisabled):
		return serviceutils.ResponseError(c, http.StatusServiceUnavailable, "Export archive unavailable", err)
	}
	return serviceutils.ResponseError(c, http.StatusInternalServerError, "Failed to export", err)
}
