package pii

import (
	"log/slog"
	"strings"

	"github.com/V4T54L/syslogfc/internal/domain"
)

const RedactedPlaceholder = "[REDACTED]"

// Redactor masks the values of selected fields in decoded records.
type Redactor struct {
	fieldsToRedact map[string]struct{} // param names, e.g. "hostname"
	logger         *slog.Logger
}

// NewRedactor creates a Redactor for the given field param names.
// Blank names are ignored; names that match no field kind are logged and ignored.
func NewRedactor(fields []string, logger *slog.Logger) *Redactor {
	logger = logger.With("component", "redactor")

	known := make(map[string]struct{})
	for _, k := range domain.Kinds() {
		known[k.String()] = struct{}{}
	}

	fieldSet := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		if _, ok := known[field]; !ok {
			logger.Warn("ignoring unknown field in redaction list", "field", field)
			continue
		}
		fieldSet[field] = struct{}{}
	}
	return &Redactor{
		fieldsToRedact: fieldSet,
		logger:         logger,
	}
}

// Enabled reports whether any field is configured for redaction.
func (r *Redactor) Enabled() bool { return len(r.fieldsToRedact) > 0 }

// Redact replaces the configured text fields of rec in place and reports whether
// anything was changed. Time and numeric fields are left alone.
func (r *Redactor) Redact(rec *domain.Record) bool {
	if len(r.fieldsToRedact) == 0 {
		return false
	}

	redacted := false
	for i := range rec.Fields {
		f := &rec.Fields[i]
		if f.Value.Type != domain.TypeString {
			continue
		}
		if _, ok := r.fieldsToRedact[f.Info.ParamName]; ok {
			f.Value.Str = RedactedPlaceholder
			redacted = true
		}
	}

	if redacted {
		r.logger.Debug("redacted record fields", "num", rec.Num)
	}
	return redacted
}
