package api

import "github.com/itchan-dev/askchan/shared/domain"

type ReplyAddressResponse struct {
	Address domain.Address `json:"address"`
	ReplyTo string         `json:"reply_to"`
}

// InboundEmailResponse reports what a received email produced. PostId is 0 when nothing was posted.
type InboundEmailResponse struct {
	Action domain.ReplyAction `json:"action"`
	PostId domain.PostId      `json:"post_id,omitempty"`
}
