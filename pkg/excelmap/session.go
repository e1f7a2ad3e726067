package excelmap

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// ============================================================================
// Options
// ============================================================================

// Option configures a Session.
type Option func(*options) error

type options struct {
	logger     *zerolog.Logger
	dict       DictResolver
	formatters *Formatters
	engine     Engine
	perCell    bool
	author     string
}

// WithLogger sets the session logger. By default the logger stored in the
// context passed to NewSession is used.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) error {
		o.logger = &l
		return nil
	}
}

// WithDictResolver sets the resolver used for fields with a dictionary type.
func WithDictResolver(r DictResolver) Option {
	return func(o *options) error {
		o.dict = r
		return nil
	}
}

// WithFormatters replaces the default formatter registry.
func WithFormatters(r *Formatters) Option {
	return func(o *options) error {
		if r == nil {
			return fmt.Errorf("formatter registry is nil")
		}
		o.formatters = r
		return nil
	}
}

// WithEngine selects the sheet engine.
func WithEngine(e Engine) Option {
	return func(o *options) error {
		if e != EngineStream && e != EngineCell {
			return fmt.Errorf("unknown engine %d", e)
		}
		o.engine = e
		return nil
	}
}

// WithPerCellStyles styles every data cell by its own alignment and format
// instead of pinning a style to each column on its first row.
func WithPerCellStyles() Option {
	return func(o *options) error {
		o.perCell = true
		return nil
	}
}

// WithCommentAuthor sets the author of header comments.
func WithCommentAuthor(author string) Option {
	return func(o *options) error {
		o.author = author
		return nil
	}
}

// ============================================================================
// Session
// ============================================================================

// Session is one workbook export. It is not safe for concurrent use and must
// be disposed by the caller.
type Session struct {
	file     *excelize.File
	opts     options
	log      zerolog.Logger
	coerce   *coercer
	sheets   []*Sheet
	current  *Sheet
	issues   []*CellError
	disposed bool
}

// NewSession creates an empty workbook.
func NewSession(ctx context.Context, opts ...Option) (*Session, error) {
	o := options{author: "excelmap"}
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, err
		}
	}

	log := zerolog.Ctx(ctx)
	if o.logger != nil {
		log = o.logger
	}

	return &Session{
		file:   excelize.NewFile(),
		opts:   o,
		log:    log.With().Str("component", "excelmap").Logger(),
		coerce: newCoercer(o.formatters),
	}, nil
}

// File exposes the underlying workbook.
func (s *Session) File() *excelize.File {
	return s.file
}

// Sheet returns the sheet rows are currently written to.
func (s *Session) Sheet() *Sheet {
	return s.current
}

// Sheets returns the sheets in creation order.
func (s *Session) Sheets() []*Sheet {
	return s.sheets
}

// Issues returns the cells written with degraded values so far.
func (s *Session) Issues() []*CellError {
	return s.issues
}

func (s *Session) record(issue *CellError) {
	s.issues = append(s.issues, issue)
	ev := s.log.Debug()
	if issue.Kind == CoercionFailure {
		ev = s.log.Info()
	}
	ev.Str("sheet", issue.Sheet).
		Int("row", issue.Row).
		Int("col", issue.Column).
		Str("attr", issue.Attr).
		Err(issue.Err).
		Msgf("cell %s failure", issue.Kind)
}

// Flush finishes every sheet. No rows can be added afterwards.
func (s *Session) Flush() error {
	for _, sh := range s.sheets {
		if err := sh.Flush(); err != nil {
			return err
		}
	}
	return nil
}

// Write flushes the workbook and writes it to w.
func (s *Session) Write(ctx context.Context, w io.Writer) error {
	if s.disposed {
		return ErrDisposed
	}
	if err := s.Flush(); err != nil {
		return err
	}
	n, err := s.file.WriteTo(w)
	if err != nil {
		s.log.Error().Err(err).Msg("writing workbook")
		return fmt.Errorf("writing workbook: %w", err)
	}
	s.log.Debug().Int64("bytes", n).Int("sheets", len(s.sheets)).Msg("workbook written")
	return nil
}

// WriteResponse writes the workbook as an attachment named fileName.
func (s *Session) WriteResponse(ctx context.Context, w http.ResponseWriter, fileName string) error {
	w.Header().Set("Content-Type", "application/octet-stream; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename="+url.QueryEscape(fileName))
	return s.Write(ctx, w)
}

// WriteFile writes the workbook to the file at path.
func (s *Session) WriteFile(ctx context.Context, path string) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := s.Write(ctx, out); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Dispose releases the temporary files of the workbook. It may be called more
// than once.
func (s *Session) Dispose() error {
	if s.disposed {
		return nil
	}
	s.disposed = true
	if err := s.file.Close(); err != nil {
		s.log.Warn().Err(err).Msg("disposing workbook")
		return err
	}
	return nil
}
