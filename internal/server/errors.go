package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/model"
)

// httpStatusFor maps a core error onto an HTTP status code.
func httpStatusFor(err error) int {
	var ve *model.ValidationError
	var ce *model.ConflictError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &ce):
		return http.StatusConflict
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// grpcStatusFor maps a core error onto a gRPC status error.
func grpcStatusFor(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	var ve *model.ValidationError
	var ce *model.ConflictError
	switch {
	case errors.As(err, &ve):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, model.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.As(err, &ce):
		return conflictStatus(ce)
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Errorf(codes.Internal, "%v", err)
	}
}

// conflictStatus carries the versions involved as a Struct detail so clients
// can rebuild the ConflictError.
func conflictStatus(ce *model.ConflictError) error {
	st := status.New(codes.Aborted, ce.Error())
	detail, err := structpb.NewStruct(map[string]any{
		"id":       ce.ID,
		"expected": ce.Expected,
		"actual":   ce.Actual,
	})
	if err != nil {
		return st.Err()
	}
	if withDetail, err := st.WithDetails(detail); err == nil {
		st = withDetail
	}
	return st.Err()
}

// errorBody is the JSON shape of every HTTP error response. Conflicts also
// report the versions involved so clients can rebuild a ConflictError.
type errorBody struct {
	Error    string `json:"error"`
	Expected *int   `json:"expected,omitempty"`
	Actual   *int   `json:"actual,omitempty"`
}

// writeErr writes err with the status httpStatusFor assigns it. Internal
// errors are logged and their message is not exposed.
func writeErr(w http.ResponseWriter, r *http.Request, err error) {
	code := httpStatusFor(err)
	body := errorBody{Error: err.Error()}
	var ce *model.ConflictError
	if errors.As(err, &ce) {
		body.Expected = &ce.Expected
		body.Actual = &ce.Actual
	}
	if code == http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		body.Error = "internal server error"
	}
	writeJSON(w, code, body)
}
