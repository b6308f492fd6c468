package handler

import (
	"context"
	"net/http"

	"github.com/gosimple/slug"
	"github.com/itchan-dev/askchan/shared/api"
	"github.com/itchan-dev/askchan/shared/domain"
	mw "github.com/itchan-dev/askchan/shared/middleware"
	"github.com/itchan-dev/askchan/shared/utils"
)

func (h *Handler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var body api.CreateQuestionRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	post, err := h.posts.Ask(r.Context(), user, body.Title, body.Text)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, api.CreatePostResponse{Id: post.Id})
}

func (h *Handler) CreateAnswer(w http.ResponseWriter, r *http.Request) {
	h.createReply(w, r, h.posts.Answer)
}

func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	h.createReply(w, r, h.posts.Comment)
}

type replyFunc func(ctx context.Context, author domain.User, parentId domain.PostId, text string) (*domain.Post, error)

func (h *Handler) createReply(w http.ResponseWriter, r *http.Request, create replyFunc) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	parentId, err := parsePostId(r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	var body api.CreateReplyRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	post, err := create(r.Context(), user, parentId, body.Text)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, api.CreatePostResponse{Id: post.Id})
}

func (h *Handler) EditPost(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	postId, err := parsePostId(r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	var body api.EditPostRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	rev, err := h.posts.Edit(r.Context(), user, postId, body.Text, body.Summary)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, rev)
}

func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	postId, err := parsePostId(r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	if err := h.posts.Delete(r.Context(), user, postId); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetPost is open to anonymous visitors; deleted content is shown to its author and admins only.
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	postId, err := parsePostId(r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	post, err := h.posts.Get(r.Context(), postId, mw.GetUserFromContext(r))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	response := api.PostResponse{Post: post}
	if post.Title != "" {
		response.Slug = slug.Make(post.Title)
	}
	utils.WriteJSON(w, http.StatusOK, response)
}

func (h *Handler) GetRevisions(w http.ResponseWriter, r *http.Request) {
	postId, err := parsePostId(r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	revisions, err := h.posts.Revisions(r.Context(), postId)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if revisions == nil {
		revisions = []domain.PostRevision{}
	}
	utils.WriteJSON(w, http.StatusOK, api.RevisionsResponse{Revisions: revisions})
}
