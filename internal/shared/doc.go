// Package shared contains the error taxonomy used across the application.
//
// # Error Types and Classification
//
//   - ErrValidation: the vehicle form is incomplete
//   - ErrRateLimited: upstream answered 429, retryable
//   - ErrTransport: no response at all, retryable
//   - ErrHTTPStatus: any other non-success status, never retried
//   - ErrParse: the upstream body could not be decoded
//   - ErrNoContent: decoded fine but carried no instructions
//   - ErrTimeout, ErrInternal
//
// Use KindOf to map an error chain onto a Kind, or the Is* predicates:
//
//	switch shared.KindOf(err) {
//	case shared.KindValidation:
//	    // ask the user to fill in the form
//	case shared.KindNoContent:
//	    // suggest a different vehicle or part
//	default:
//	    // generic network message
//	}
//
// # Kind Priority Table
//
//	Priority | Kind
//	---------|--------------
//	1        | KindCanceled
//	2        | KindTimeout
//	3        | KindValidation
//	4        | KindRateLimited
//	5        | KindHTTPStatus
//	6        | KindParse
//	7        | KindNoContent
//	8        | KindTransport
//	9        | KindInternal
//
// # Marking
//
// MarkKind attaches a sentinel to a third-party error while keeping it in the chain:
//
//	if err := json.Unmarshal(body, &out); err != nil {
//	    return shared.MarkKind(err, shared.KindParse)
//	}
package shared
