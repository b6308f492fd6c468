package utils

import (
	"strings"
	"unicode/utf8"

	"github.com/itchan-dev/askchan/shared/errors"
)

const (
	MaxTitleLen = 150
	MaxTextLen  = 10_000
)

type PostValidator struct{}

func New() *PostValidator {
	return &PostValidator{}
}

func (e *PostValidator) Title(title string) error {
	if strings.TrimSpace(title) == "" {
		return errors.BadRequest("Title is too short")
	}
	if utf8.RuneCountInString(title) > MaxTitleLen {
		return errors.BadRequest("Title is too long")
	}
	return nil
}

func (e *PostValidator) Text(text string) error {
	if strings.TrimSpace(text) == "" {
		return errors.BadRequest("Text is too short")
	}
	if utf8.RuneCountInString(text) > MaxTextLen {
		return errors.BadRequest("Text is too long")
	}
	return nil
}
