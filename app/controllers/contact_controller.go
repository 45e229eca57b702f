package controllers

import (
	"errors"
	"net/http"

	"folio/app/services"
)

// ContactController relays contact form submissions
type ContactController struct {
	contact *services.ContactService
}

func NewContactController(contact *services.ContactService) *ContactController {
	return &ContactController{contact: contact}
}

// Submit forwards the message. Browser form posts always land on the thanks
// page; JSON clients get a status string.
func (cc *ContactController) Submit(w http.ResponseWriter, r *http.Request) {
	var form services.ContactForm
	if isJSON(r) {
		if err := decodeJSON(r, &form); err != nil {
			sendJSON(w, r, http.StatusBadRequest, map[string]string{"status": "missingdata"})
			return
		}
	} else {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := r.ParseForm(); err == nil {
			form.Name = r.FormValue("name")
			form.Email = r.FormValue("email")
			form.Message = r.FormValue("message")
		}
	}

	err := cc.contact.Submit(r.Context(), form)

	if !isJSON(r) {
		http.Redirect(w, r, "/contact/thanks", http.StatusMovedPermanently)
		return
	}
	switch {
	case err == nil:
		sendJSON(w, r, http.StatusOK, map[string]string{"status": "success"})
	case errors.Is(err, services.ErrMissingData):
		sendJSON(w, r, http.StatusBadRequest, map[string]string{"status": "missingdata"})
	default:
		sendJSON(w, r, http.StatusBadGateway, map[string]string{"status": "error"})
	}
}
