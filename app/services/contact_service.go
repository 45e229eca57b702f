package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"folio/app/logging"

	"github.com/go-playground/validator/v10"
)

var (
	ErrMissingData   = errors.New("missing contact data")
	ErrForwardFailed = errors.New("failed to forward contact form")
)

var validate = validator.New()

// FormForwarder delivers a submitted form to the forms provider
type FormForwarder interface {
	Forward(ctx context.Context, form url.Values) error
}

// ContactForm is a message sent through the contact page
type ContactForm struct {
	Name    string `json:"name" validate:"max=200"`
	Email   string `json:"email" validate:"required,email"`
	Message string `json:"message" validate:"required,max=5000"`
}

// ContactService relays contact messages to the forms provider
type ContactService struct {
	forwarder FormForwarder
}

func NewContactService(forwarder FormForwarder) *ContactService {
	return &ContactService{forwarder: forwarder}
}

// Submit validates f and forwards it.
func (s *ContactService) Submit(ctx context.Context, f ContactForm) error {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	f.Message = strings.TrimSpace(f.Message)
	if err := validate.Struct(f); err != nil {
		return fmt.Errorf("%w: %v", ErrMissingData, err)
	}

	form := url.Values{}
	form.Set("email", f.Email)
	form.Set("message", f.Message)
	if f.Name != "" {
		form.Set("name", f.Name)
	}
	return s.forward(ctx, form)
}

// ForwardForm passes a raw form submission through unchanged.
func (s *ContactService) ForwardForm(ctx context.Context, form url.Values) error {
	return s.forward(ctx, form)
}

func (s *ContactService) forward(ctx context.Context, form url.Values) error {
	if err := s.forwarder.Forward(ctx, form); err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("contact form forwarding failed")
		return fmt.Errorf("%w: %v", ErrForwardFailed, err)
	}
	return nil
}
