package quickstart

import (
	"context"
	stderrors "errors"
	"strings"

	"meshdrop/pkg/errors"
)

// OutcomeKind classifies how a run ended
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeValidationError
	OutcomeWarehouseFailure
	OutcomeRemoteServiceFailure
	// OutcomeFailure covers errors outside both categories, such as a
	// cancelled context.
	OutcomeFailure
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeValidationError:
		return "validation-error"
	case OutcomeWarehouseFailure:
		return "warehouse-failure"
	case OutcomeRemoteServiceFailure:
		return "remote-service-failure"
	default:
		return "failure"
	}
}

// Outcome is the result of one run as shown to the user
type Outcome struct {
	Kind OutcomeKind
	// Field is the offending input of a validation error
	Field  string
	Detail string
	Report *Report
	Err    error
}

// Success reports whether the run completed
func (o Outcome) Success() bool {
	return o.Kind == OutcomeSuccess
}

// Message is the status line for the outcome
func (o Outcome) Message() string {
	switch o.Kind {
	case OutcomeSuccess:
		return "Success!"
	case OutcomeValidationError:
		return o.Detail
	case OutcomeWarehouseFailure:
		return joinStatus("Snowflake failure!", o.Detail)
	case OutcomeRemoteServiceFailure:
		return joinStatus("dbt Cloud failure!", o.Detail)
	default:
		return joinStatus("Failure!", o.Detail)
	}
}

func joinStatus(status, detail string) string {
	if detail == "" {
		return status
	}
	return status + " " + detail
}

// Run validates req, deploys, and classifies the result
func (d *Deployer) Run(ctx context.Context, req Request) Outcome {
	if err := req.Validate(); err != nil {
		return Outcome{
			Kind:   OutcomeValidationError,
			Field:  errors.FieldOf(err),
			Detail: errorMessage(err),
			Err:    err,
		}
	}

	report, err := d.Deploy(ctx, req)
	if err == nil {
		return Outcome{Kind: OutcomeSuccess, Report: report}
	}
	return Classify(err, report)
}

// Classify maps a deploy error onto an Outcome
func Classify(err error, report *Report) Outcome {
	out := Outcome{Report: report, Err: err}
	switch {
	case err == nil:
		out.Kind = OutcomeSuccess
		return out
	case errors.HasCode(err, errors.ErrCodeRequiredField), errors.HasCode(err, errors.ErrCodeValidationFailed):
		out.Kind = OutcomeValidationError
		out.Field = errors.FieldOf(err)
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		out.Kind = OutcomeFailure
	case IsWarehouseError(err):
		out.Kind = OutcomeWarehouseFailure
	case IsRemoteServiceError(err):
		out.Kind = OutcomeRemoteServiceFailure
	default:
		out.Kind = OutcomeFailure
	}
	out.Detail = errorMessage(cause(err))
	return out
}

// cause strips the category wrapper so the detail names what actually failed
func cause(err error) error {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) && appErr.Cause != nil &&
		(appErr.Code == errors.ErrCodeWarehouse || appErr.Code == errors.ErrCodeRemoteService) {
		return appErr.Cause
	}
	return err
}

// errorMessage renders err without the code and severity prefix of AppError
func errorMessage(err error) string {
	if err == nil {
		return ""
	}
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) && appErr == err {
		msg := appErr.Message
		if appErr.Cause != nil {
			msg += ": " + errorMessage(appErr.Cause)
		}
		return msg
	}
	// fmt-wrapped errors keep their own prefix; only the AppError tail is trimmed
	if stderrors.As(err, &appErr) {
		full := err.Error()
		if i := strings.Index(full, appErr.Error()); i > 0 {
			return full[:i] + errorMessage(appErr)
		}
	}
	return err.Error()
}
