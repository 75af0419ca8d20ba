package cli

import (
	"errors"

	"github.com/aidanlsb/wikiroll/internal/adf"
	"github.com/aidanlsb/wikiroll/internal/config"
	"github.com/aidanlsb/wikiroll/internal/confluence"
	"github.com/aidanlsb/wikiroll/internal/daily"
	"github.com/aidanlsb/wikiroll/internal/journal"
	"github.com/aidanlsb/wikiroll/internal/jsonschema"
	"github.com/aidanlsb/wikiroll/internal/storage"
)

// Error codes for structured error responses.
// These codes are stable and can be relied upon by scripts.
const (
	ErrConfigInvalid = "CONFIG_INVALID"

	// Schema errors
	ErrSchemaInvalid    = "SCHEMA_INVALID"
	ErrRefNotFound      = "REF_NOT_FOUND"
	ErrValidationFailed = "VALIDATION_FAILED"

	// Confluence errors
	ErrPageNotFound = "PAGE_NOT_FOUND"
	ErrAPIError     = "API_ERROR"
	ErrUpToDate     = "UP_TO_DATE"

	// Body errors
	ErrParseError = "PARSE_ERROR"

	// Journal errors
	ErrDatabaseError    = "DATABASE_ERROR"
	ErrSnapshotNotFound = "SNAPSHOT_NOT_FOUND"

	// File errors
	ErrFileReadError  = "FILE_READ_ERROR"
	ErrFileWriteError = "FILE_WRITE_ERROR"

	// Input errors
	ErrInvalidInput    = "INVALID_INPUT"
	ErrMissingArgument = "MISSING_ARGUMENT"

	// General errors
	ErrInternal = "INTERNAL_ERROR"
)

// Warning codes for non-fatal issues.
const (
	WarnStateNotSaved   = "STATE_NOT_SAVED"
	WarnNothingCarried  = "NOTHING_CARRIED"
	WarnSnapshotSkipped = "SNAPSHOT_SKIPPED"
)

// errorCode maps an error from the library packages to its stable code.
func errorCode(err error) string {
	var (
		parseErr  *jsonschema.ParseError
		syntaxErr *storage.SyntaxError
		apiErr    *confluence.APIError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, config.ErrNoCredentials):
		return ErrConfigInvalid
	case errors.Is(err, daily.ErrUpToDate):
		return ErrUpToDate
	case errors.Is(err, confluence.ErrNotFound):
		return ErrPageNotFound
	case errors.Is(err, journal.ErrSnapshotNotFound):
		return ErrSnapshotNotFound
	case errors.Is(err, jsonschema.ErrUnknownRef):
		return ErrRefNotFound
	case errors.Is(err, adf.ErrInvalid):
		return ErrValidationFailed
	case errors.As(err, &parseErr),
		errors.Is(err, jsonschema.ErrMergeConflict),
		errors.Is(err, jsonschema.ErrTooDeep):
		return ErrSchemaInvalid
	case errors.As(err, &syntaxErr):
		return ErrParseError
	case errors.As(err, &apiErr):
		return ErrAPIError
	}
	return ErrInternal
}

func errorSuggestion(err error) string {
	switch errorCode(err) {
	case ErrConfigInvalid:
		return "Set confluence.url, confluence.email and confluence.token in the config or WROLL_URL, WROLL_EMAIL and WROLL_TOKEN"
	case ErrUpToDate:
		return "The page was already rolled over for this period"
	case ErrPageNotFound:
		return "Check the space name and the page path; path components match titles exactly or as strftime patterns"
	case ErrSnapshotNotFound:
		return "Run 'wroll history --page-id <id>' to list snapshots"
	}
	return ""
}
