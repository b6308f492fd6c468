package handler

import (
	"net/http"

	"github.com/itchan-dev/askchan/shared/api"
	"github.com/itchan-dev/askchan/shared/domain"
	"github.com/itchan-dev/askchan/shared/utils"
)

// CreateReplyAddress issues a single-use reply address for the post and mails it to the user.
func (h *Handler) CreateReplyAddress(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	postId, err := parsePostId(r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	ra, err := h.replies.Offer(r.Context(), postId, user)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, api.ReplyAddressResponse{
		Address: ra.Address,
		ReplyTo: h.replies.ReplyTo(ra.Address),
	})
}

// InboundEmail is the webhook of the mail gateway, the router checks its secret.
// Any 4xx means the message can't be delivered and should be dropped.
func (h *Handler) InboundEmail(w http.ResponseWriter, r *http.Request) {
	var email domain.InboundEmail
	if err := utils.DecodeValidate(r.Body, &email); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	result, err := h.inbound.Process(r.Context(), email)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	response := api.InboundEmailResponse{Action: result.Action}
	if result.Post != nil {
		response.PostId = result.Post.Id
	}
	utils.WriteJSON(w, http.StatusOK, response)
}
