package api

import (
	"github.com/itchan-dev/askchan/shared/domain"
)

// Request DTOs

type CreateQuestionRequest struct {
	Title string `json:"title" validate:"required"`
	Text  string `json:"text" validate:"required"`
}

// CreateReplyRequest is the body of both answers and comments
type CreateReplyRequest struct {
	Text string `json:"text" validate:"required"`
}

type EditPostRequest struct {
	Text    string `json:"text" validate:"required"`
	Summary string `json:"summary,omitempty"`
}

// Response DTOs

type CreatePostResponse struct {
	Id domain.PostId `json:"id"`
}

// PostResponse wraps a post with its visible comments
type PostResponse struct {
	*domain.Post
	Slug string `json:"slug,omitempty"`
}

type RevisionsResponse struct {
	Revisions []domain.PostRevision `json:"revisions"`
}
