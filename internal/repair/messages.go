package repair

import (
	"errors"

	"repairguide/internal/platform/ratelimit"
	"repairguide/internal/shared"
)

// Messages shown to the person asking, whichever front-end they use.
const (
	MsgMissingFields = "Please fill in all vehicle and part details."
	MsgNoContent     = "Could not find repair instructions. Please try a different part or vehicle combination."
	MsgFailed        = "An error occurred while fetching instructions. Please check your network connection."
	MsgBusy          = "A request is already running. Please wait a moment and try again."
	MsgTooSoon       = "You are sending requests too quickly. Please wait a few seconds and try again."
)

// UserMessage picks the message for a failed Instructions call.
func UserMessage(err error) string {
	switch shared.KindOf(err) {
	case shared.KindValidation:
		return MsgMissingFields
	case shared.KindNoContent:
		return MsgNoContent
	default:
		return MsgFailed
	}
}

// GuardMessage explains why the per-client guard turned a request away.
func GuardMessage(err error) string {
	if errors.Is(err, ratelimit.ErrTooSoon) {
		return MsgTooSoon
	}
	return MsgBusy
}
