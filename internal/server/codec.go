package server

import (
	"fmt"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	mdwerror "github.com/msto63/netplane/foundation/core/error"
	"github.com/msto63/netplane/foundation/rcl/executor"
)

// errorDomain tags ErrorInfo details produced by this service
const errorDomain = "netplane"

// Result kinds carried in the reply's "kind" field
const (
	kindEmpty  = "empty"
	kindList   = "list"
	kindCount  = "count"
	kindScalar = "scalar"
)

// grpcCode maps a command failure code onto a gRPC status code
func grpcCode(code mdwerror.Code) codes.Code {
	switch code {
	case mdwerror.CodeRCLSyntax, mdwerror.CodeRCLSemantic, mdwerror.CodeRCLParamValidation, mdwerror.CodeInvalidInput:
		return codes.InvalidArgument
	case mdwerror.CodeNotFound:
		return codes.NotFound
	case mdwerror.CodeDuplicateEntry:
		return codes.AlreadyExists
	case mdwerror.CodeResourceLocked, mdwerror.CodeInvalidOperation:
		return codes.FailedPrecondition
	case mdwerror.CodeRCLConfigLocked:
		return codes.PermissionDenied
	case mdwerror.CodeTimeout:
		return codes.DeadlineExceeded
	case mdwerror.CodeServiceUnavailable:
		return codes.Unavailable
	default:
		return codes.Internal
	}
}

// toStatus converts a command failure into a status carrying the
// original code as ErrorInfo
func toStatus(err error, requestID string) error {
	code := mdwerror.GetCode(err)
	st := status.New(grpcCode(code), err.Error())
	info := &errdetails.ErrorInfo{
		Reason:   string(code),
		Domain:   errorDomain,
		Metadata: map[string]string{"request_id": requestID},
	}
	if detailed, derr := st.WithDetails(info); derr == nil {
		st = detailed
	}
	return st.Err()
}

// fromStatus rebuilds a command failure from a status returned by the
// control service. Transport failures keep their gRPC meaning.
func fromStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	for _, d := range st.Details() {
		info, ok := d.(*errdetails.ErrorInfo)
		if !ok || info.Domain != errorDomain {
			continue
		}
		e := mdwerror.New(st.Message()).WithCode(mdwerror.Code(info.Reason))
		if id := info.Metadata["request_id"]; id != "" {
			e = e.WithRequestID(id)
		}
		return e
	}

	switch st.Code() {
	case codes.Unavailable:
		return mdwerror.Wrap(err, "control service unavailable").WithCode(mdwerror.CodeServiceUnavailable)
	case codes.DeadlineExceeded, codes.Canceled:
		return mdwerror.Wrap(err, "control request timed out").WithCode(mdwerror.CodeTimeout)
	default:
		return mdwerror.Wrap(err, "control request failed").WithCode(mdwerror.CodeInternal)
	}
}

// encodeResult renders a result as a reply struct
func encodeResult(commandID string, r *executor.CmdResult) (*structpb.Struct, error) {
	fields := map[string]interface{}{
		"command_id": commandID,
		"text":       r.Text,
	}

	switch v := r.Value.(type) {
	case nil:
		fields["kind"] = kindEmpty
	case int64:
		fields["kind"] = kindCount
		fields["value"] = float64(v)
	case string:
		fields["kind"] = kindScalar
		fields["value"] = v
	default:
		fields["kind"] = kindList
		lines := r.Lines()
		items := make([]interface{}, len(lines))
		for i, l := range lines {
			items[i] = l
		}
		fields["value"] = items
	}

	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return s, nil
}

// decodeResult rebuilds a result from a reply. Detail lists come back as
// their rendered lines.
func decodeResult(s *structpb.Struct) (string, *executor.CmdResult, error) {
	m := s.AsMap()
	id, _ := m["command_id"].(string)
	text, _ := m["text"].(string)

	switch m["kind"] {
	case kindEmpty:
		return id, &executor.CmdResult{}, nil
	case kindCount:
		n, _ := m["value"].(float64)
		return id, &executor.CmdResult{Value: int64(n), Rendered: text, Text: text}, nil
	case kindScalar:
		v, _ := m["value"].(string)
		return id, &executor.CmdResult{Value: v, Rendered: v, Text: text}, nil
	case kindList:
		raw, _ := m["value"].([]interface{})
		lines := make([]string, 0, len(raw))
		for _, item := range raw {
			str, _ := item.(string)
			lines = append(lines, str)
		}
		return id, &executor.CmdResult{Value: lines, Rendered: lines, Text: text}, nil
	default:
		return id, nil, mdwerror.Newf("unknown result kind %v", m["kind"]).WithCode(mdwerror.CodeInternal)
	}
}
