package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/itchan-dev/askchan/shared/domain"
	"github.com/itchan-dev/askchan/shared/errors"
	mw "github.com/itchan-dev/askchan/shared/middleware"
)

// parsePostId reads the {post} url parameter
func parsePostId(r *http.Request) (domain.PostId, error) {
	param := chi.URLParam(r, "post")
	id, err := strconv.ParseInt(param, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.BadRequest(fmt.Sprintf("invalid post ID: %q", param))
	}
	return id, nil
}

// requireUser returns the authenticated user or writes 401
func requireUser(w http.ResponseWriter, r *http.Request) (domain.User, bool) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return domain.User{}, false
	}
	return *user, true
}
