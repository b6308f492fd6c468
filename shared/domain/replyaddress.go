package domain

import "time"

// ReplyAddress lets AllowedFromEmail act as User on Post by replying to an email, once.
type ReplyAddress struct {
	Id               ReplyAddressId `json:"-"`
	Address          Address        `json:"address"`
	Post             Post           `json:"post"`
	User             User           `json:"user"`
	AllowedFromEmail Email          `json:"allowed_from_email"`
	UsedAt           *time.Time     `json:"used_at,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
}

func (r *ReplyAddress) Used() bool {
	return r.UsedAt != nil
}

type ReplyAddressCreationData struct {
	Address          Address
	PostId           PostId
	UserId           UserId
	AllowedFromEmail Email
}

type ReplyAction string

const (
	ReplyActionNone    ReplyAction = "none"
	ReplyActionAnswer  ReplyAction = "answer"
	ReplyActionComment ReplyAction = "comment"
)

// ReplyResult is what redeeming a reply address produced.
type ReplyResult struct {
	Action ReplyAction `json:"action"`
	Post   *Post       `json:"post,omitempty"`
}

// InboundEmail is what the mail gateway hands over for one received message.
type InboundEmail struct {
	To   string `json:"to" validate:"required"`
	From string `json:"from" validate:"required"`
	Body string `json:"body"`
}
