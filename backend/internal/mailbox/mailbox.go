// Package mailbox consumes inbound emails published by the mail gateway on JetStream.
package mailbox

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/samber/lo"

	"github.com/itchan-dev/askchan/shared/bus"
	"github.com/itchan-dev/askchan/shared/domain"
	"github.com/itchan-dev/askchan/shared/errors"
	"github.com/itchan-dev/askchan/shared/logger"
	"github.com/itchan-dev/askchan/shared/utils"
)

const (
	Stream  = "MAIL"
	Durable = "askchan-inbound"
)

type Processor interface {
	Process(ctx context.Context, email domain.InboundEmail) (domain.ReplyResult, error)
}

type Subscriber interface {
	Subscribe(ctx context.Context, subj, durable string, fn func(ctx context.Context, data []byte) error) (io.Closer, error)
}

// undeliverable statuses: redelivering the same message can't change the outcome
var undeliverable = []int{
	http.StatusBadRequest,
	http.StatusNotFound,
	http.StatusGone,
	http.StatusUnprocessableEntity,
}

type Consumer struct {
	processor Processor
	subject   string
}

func New(processor Processor, subject string) *Consumer {
	return &Consumer{processor: processor, subject: subject}
}

// Start subscribes the durable consumer. Closing the result or cancelling ctx stops it.
func (c *Consumer) Start(ctx context.Context, sub Subscriber) (io.Closer, error) {
	closer, err := sub.Subscribe(ctx, c.subject, Durable, c.handle)
	if err != nil {
		return nil, err
	}
	logger.Log.Info("mailbox consumer started", "component", "mailbox", "subject", c.subject, "durable", Durable)
	return closer, nil
}

func (c *Consumer) handle(ctx context.Context, data []byte) error {
	var email domain.InboundEmail
	if err := utils.DecodeValidate(io.NopCloser(bytes.NewReader(data)), &email); err != nil {
		return bus.Permanent(err)
	}

	result, err := c.processor.Process(ctx, email)
	if err != nil {
		if lo.Contains(undeliverable, errors.StatusCode(err)) {
			return bus.Permanent(err)
		}
		return err
	}

	var postId domain.PostId
	if result.Post != nil {
		postId = result.Post.Id
	}
	logger.Log.Info("inbound email processed", "component", "mailbox", "action", string(result.Action), "post_id", postId)
	return nil
}
